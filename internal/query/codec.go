// Package query maps the address-bar query string to filter state and back.
//
// The query format is "?<tag>&<date>&<date>", every part optional and in any
// order. Dates are YYYY-MM-DD.
package query

import (
	"sort"
	"strings"

	"cartelera/internal/dateutil"
)

// State is the filter form: a tag and a date range. "" means unset.
type State struct {
	Filtro string `json:"filtro,omitempty"`
	Ini    string `json:"ini,omitempty"`
	Fin    string `json:"fin,omitempty"`
}

// Bounds is the selectable date range, from the date input's min/max.
type Bounds struct {
	Min string
	Max string
}

// Contains reports whether date lies inside the bounds; open ends accept.
func (b Bounds) Contains(date string) bool {
	if b.Min != "" && date < b.Min {
		return false
	}
	if b.Max != "" && date > b.Max {
		return false
	}
	return true
}

// Codec parses and canonicalizes query strings for one page.
type Codec struct {
	bounds      Bounds
	tags        map[string]struct{}
	dateSupport bool
}

// NewCodec binds the codec to the page's bounds, its selectable tags and
// whether dates can be filtered at all.
func NewCodec(bounds Bounds, tags []string, dateSupport bool) *Codec {
	c := &Codec{
		bounds:      bounds,
		tags:        make(map[string]struct{}, len(tags)),
		dateSupport: dateSupport,
	}
	for _, t := range tags {
		if t != "" {
			c.tags[t] = struct{}{}
		}
	}
	return c
}

// Bounds returns the codec's date bounds.
func (c *Codec) Bounds() Bounds {
	return c.bounds
}

// IsTag reports whether tag is one of the page's selectable options.
func (c *Codec) IsTag(tag string) bool {
	_, ok := c.tags[tag]
	return ok
}

// Parse reads a query string. Tokens that are neither an in-bounds date nor
// a known tag are dropped. With more than two dates only the earliest and
// the latest are kept. The result is canonical.
func (c *Codec) Parse(raw string) State {
	raw = strings.TrimPrefix(raw, "?")
	var st State
	if raw == "" {
		return st
	}
	var dates []string
	for _, tok := range strings.Split(raw, "&") {
		switch dateutil.Classify(tok) {
		case dateutil.Valid:
			if c.bounds.Contains(tok) {
				dates = append(dates, tok)
			}
		case dateutil.Invalid:
			// looks like a date, isn't one
		default:
			if c.IsTag(tok) {
				st.Filtro = tok
			}
		}
	}
	sort.Strings(dates)
	if len(dates) > 0 {
		st.Ini = dates[0]
	}
	if len(dates) > 1 {
		st.Fin = dates[len(dates)-1]
	}
	return c.Canonicalize(st)
}

// Canonicalize drops what the query need not carry:
//   - no dates at all without native date inputs;
//   - a reversed range is put in order;
//   - a lone upper bound gets the minimum as lower bound;
//   - the full range [Min, Max] is the same as no range;
//   - an upper bound equal to Max is implied.
//
// Canonicalize(Canonicalize(s)) == Canonicalize(s).
func (c *Codec) Canonicalize(s State) State {
	if !c.dateSupport {
		s.Ini, s.Fin = "", ""
		return s
	}
	if s.Ini != "" && s.Fin != "" && s.Ini > s.Fin {
		s.Ini, s.Fin = s.Fin, s.Ini
	}
	if s.Ini == "" && s.Fin != "" {
		s.Ini = c.bounds.Min
	}
	if s.Ini == c.bounds.Min && s.Fin == c.bounds.Max {
		s.Ini, s.Fin = "", ""
	}
	if s.Fin == c.bounds.Max {
		s.Fin = ""
	}
	return s
}

// Serialize writes s as "?filtro&ini&fin", skipping unset parts. The empty
// state is "".
func Serialize(s State) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Filtro, s.Ini, s.Fin} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}
