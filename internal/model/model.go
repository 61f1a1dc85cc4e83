package model

import (
	"strings"

	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
)

// Markup contract of the listing page.
const (
	EventSelector   = "div.evento"
	SessionSelector = "ol.sesiones > li[data-start], ol.sesiones > li[data-end]"
	HiddenClass     = "hide"
	eventClass      = "evento"
)

// Cutoff is the moment staleness is judged against, in both granularities.
type Cutoff struct {
	Now   string // "YYYY-MM-DD HH:MM"
	Today string // "YYYY-MM-DD"
}

// CutoffAt derives a Cutoff from a stamp.
func CutoffAt(now string) Cutoff {
	return Cutoff{Now: now, Today: dateutil.Today(now)}
}

// Expirable is anything on the page that can fall behind the cutoff.
type Expirable interface {
	EndsBefore(c Cutoff) bool
}

// expired compares a normalized end value with the cutoff at the value's own
// granularity. An empty end never expires.
func expired(end string, c Cutoff) bool {
	switch {
	case end == "":
		return false
	case dateutil.HasTime(end):
		return end < c.Now
	default:
		return end < c.Today
	}
}

// Event is one div.evento of the listing.
type Event struct {
	ID    string
	Title string
	URL   string
	Tags  []string
	// End is the event-level data-end, normalized; "" when absent or bad.
	End      string
	Sessions []*SessionEntry

	el dom.Element
}

// Element is the event's node.
func (e *Event) Element() dom.Element {
	return e.el
}

// EndsBefore reports whether the event as a whole is over: either its own
// end has passed, or it lists sessions and every one of them has.
func (e *Event) EndsBefore(c Cutoff) bool {
	if expired(e.End, c) {
		return true
	}
	if len(e.Sessions) == 0 {
		return false
	}
	for _, s := range e.Sessions {
		if !s.EndsBefore(c) {
			return false
		}
	}
	return true
}

// HasTag reports whether the event carries tag.
func (e *Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Hidden reports whether the date filter currently hides the event.
func (e *Event) Hidden() bool {
	return e.el != nil && e.el.HasClass(HiddenClass)
}

// FirstKey is the sort key used when reordering: the earliest session
// start (or end, for sessions without start). ok is false without sessions.
func (e *Event) FirstKey() (key string, ok bool) {
	for _, s := range e.Sessions {
		k := s.Start
		if k == "" {
			k = s.End
		}
		if k == "" {
			continue
		}
		if !ok || k < key {
			key, ok = k, true
		}
	}
	return key, ok
}

// Scan reads every event of the page, in document order.
func Scan(doc dom.Document) []*Event {
	nodes := doc.QueryAll(EventSelector)
	out := make([]*Event, 0, len(nodes))
	for _, el := range nodes {
		out = append(out, ScanEvent(el))
	}
	return out
}

// ScanEvent reads one event node.
func ScanEvent(el dom.Element) *Event {
	ev := &Event{ID: el.ID(), el: el}
	for _, c := range el.Classes() {
		if c == eventClass || c == HiddenClass {
			continue
		}
		ev.Tags = append(ev.Tags, c)
	}
	if end, ok := el.Attr("data-end"); ok {
		ev.End = dateutil.NormalizeStamp(end)
	}
	ev.Title = eventTitle(el)
	if a := el.Query("a[href]"); a != nil {
		ev.URL, _ = a.Attr("href")
	}
	for _, li := range el.QueryAll(SessionSelector) {
		ev.Sessions = append(ev.Sessions, scanSession(li))
	}
	return ev
}

func eventTitle(el dom.Element) string {
	if t, ok := el.Attr("data-title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if h := el.Query("h1, h2, h3, h4"); h != nil {
		if t := strings.Join(strings.Fields(h.Text()), " "); t != "" {
			return t
		}
	}
	return el.ID()
}
