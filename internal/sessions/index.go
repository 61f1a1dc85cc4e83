// Package sessions builds the date → events index the date filter queries.
package sessions

import (
	"sort"

	"cartelera/internal/dateutil"
	"cartelera/internal/model"
)

// Options bound the expansion done while building. Only dates in
// [From, Horizon] can be queried, so a session is registered under the
// days it spans inside that window; one lying wholly outside keeps the
// single day nearest to it.
type Options struct {
	// From (YYYY-MM-DD) is the earliest selectable date.
	From string
	// Horizon (YYYY-MM-DD) is the last indexed date. It also stops
	// open-ended recurring sessions.
	Horizon string
}

// Index maps calendar dates to the ids of events with a session on that
// date. Events without any dated session are kept apart: they match every
// date range. An Index is never modified after Build.
type Index struct {
	byDate      map[string]map[string]struct{}
	dates       []string
	sinSesiones map[string]struct{}
}

// Build indexes events. Call it on the events left after pruning.
func Build(events []*model.Event, opts Options) *Index {
	w := dateutil.Window{From: opts.From, To: opts.Horizon}
	ix := &Index{
		byDate:      make(map[string]map[string]struct{}),
		sinSesiones: make(map[string]struct{}),
	}
	for _, ev := range events {
		indexed := false
		for _, s := range ev.Sessions {
			for _, day := range s.Days(w) {
				ix.add(day, ev.ID)
				indexed = true
			}
		}
		if !indexed {
			ix.sinSesiones[ev.ID] = struct{}{}
		}
	}
	ix.dates = make([]string, 0, len(ix.byDate))
	for d := range ix.byDate {
		ix.dates = append(ix.dates, d)
	}
	sort.Strings(ix.dates)
	return ix
}

func (ix *Index) add(day, id string) {
	bucket, ok := ix.byDate[day]
	if !ok {
		bucket = make(map[string]struct{})
		ix.byDate[day] = bucket
	}
	bucket[id] = struct{}{}
}

// VisibleFor returns the events with a session inside [ini, fin]; an empty
// bound is open. With both bounds empty it returns the all-visible
// selection, which is not the same as an empty one.
func (ix *Index) VisibleFor(ini, fin string) Selection {
	if ini == "" && fin == "" {
		return All()
	}
	ids := make(map[string]struct{}, len(ix.sinSesiones))
	for id := range ix.sinSesiones {
		ids[id] = struct{}{}
	}
	for _, d := range ix.dates {
		if ini != "" && d < ini {
			continue
		}
		if fin != "" && d > fin {
			continue
		}
		for id := range ix.byDate[d] {
			ids[id] = struct{}{}
		}
	}
	return Selection{ids: ids}
}

// Dates lists the indexed dates in order.
func (ix *Index) Dates() []string {
	return append([]string(nil), ix.dates...)
}

// Undated lists SIN_SESIONES, sorted.
func (ix *Index) Undated() []string {
	return sortedKeys(ix.sinSesiones)
}

// Selection is the result of a range query.
type Selection struct {
	all bool
	ids map[string]struct{}
}

// All is the "no date filter" selection.
func All() Selection {
	return Selection{all: true}
}

// All reports the all-visible sentinel.
func (s Selection) All() bool {
	return s.all
}

// Has reports whether id is visible under s.
func (s Selection) Has(id string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Len is the number of ids; -1 for the all-visible sentinel.
func (s Selection) Len() int {
	if s.all {
		return -1
	}
	return len(s.ids)
}

// IDs returns the ids sorted; nil for the all-visible sentinel.
func (s Selection) IDs() []string {
	if s.all {
		return nil
	}
	return sortedKeys(s.ids)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
