// Package stale prunes events and sessions that are already over before
// the page is filtered, and keeps the date inputs from offering the past.
package stale

import (
	"sort"
	"strconv"

	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
	"cartelera/internal/form"
	appLog "cartelera/internal/log"
	"cartelera/internal/model"
)

// Controls names the elements the reconciler touches.
type Controls struct {
	Ini   string
	Total string
}

// Report summarizes one run.
type Report struct {
	Now             string
	RemovedEvents   []string
	SessionsRemoved int
	Reordered       bool
	Remaining       int
}

// Reconciler runs scan → prune → bounds → (reorder) → done on a page.
type Reconciler struct {
	doc   dom.Document
	form  *form.Form
	ids   Controls
	clock dateutil.Clock
}

func New(doc dom.Document, f *form.Form, ids Controls, clock dateutil.Clock) *Reconciler {
	return &Reconciler{doc: doc, form: f, ids: ids, clock: clock}
}

// Run prunes the page in place. Once it returns, the remaining events can
// be indexed.
func (r *Reconciler) Run() Report {
	now := dateutil.Now(r.clock)
	cut := model.CutoffAt(now)
	rep := Report{Now: now}

	r.raiseMin(cut.Today)

	var kept []*model.Event
	for _, ev := range model.Scan(r.doc) {
		if ev.EndsBefore(cut) {
			ev.Element().Remove()
			rep.RemovedEvents = append(rep.RemovedEvents, ev.ID)
			continue
		}
		live := ev.Sessions[:0]
		for _, s := range ev.Sessions {
			if s.EndsBefore(cut) {
				s.Element().Remove()
				rep.SessionsRemoved++
				rep.Reordered = true
				continue
			}
			live = append(live, s)
		}
		ev.Sessions = live
		kept = append(kept, ev)
	}

	rep.Remaining = len(kept)
	if total := r.doc.ByID(r.ids.Total); total != nil {
		total.SetText(strconv.Itoa(rep.Remaining))
	} else {
		appLog.Warn("element not found", "id", r.ids.Total)
	}

	if rep.Reordered {
		reorder(kept)
	}

	if first := earliestStart(kept); first != "" {
		r.raiseMin(first)
	}

	appLog.Info("stale events pruned",
		"now", now,
		"removed_events", len(rep.RemovedEvents),
		"removed_sessions", rep.SessionsRemoved,
		"remaining", rep.Remaining,
		"reordered", rep.Reordered,
	)
	return rep
}

// raiseMin moves the start-date input's min (and its value) up to date. It
// never lowers them and never passes max.
func (r *Reconciler) raiseMin(date string) {
	if r.form.Control(r.ids.Ini) == nil {
		appLog.Warn("element not found", "id", r.ids.Ini)
		return
	}
	if max := r.form.Attr(r.ids.Ini, "max"); max != "" && date > max {
		return
	}
	if min := r.form.Attr(r.ids.Ini, "min"); min == "" || min < date {
		r.form.SetAttr(r.ids.Ini, "min", date)
	}
	if v := r.form.ReadString(r.ids.Ini); v != "" && v < date {
		r.form.SetAttr(r.ids.Ini, "value", date)
		r.form.SetString(r.ids.Ini, date)
	}
}

// reorder sorts events by their earliest remaining session, keeping
// document order on ties and putting events without sessions last, then
// re-appends them to their containers in that order.
func reorder(events []*model.Event) {
	// earliest session start first (FirstKey), not earliest end
	sort.SliceStable(events, func(i, j int) bool {
		ki, oki := events[i].FirstKey()
		kj, okj := events[j].FirstKey()
		if oki != okj {
			return oki
		}
		return ki < kj
	})
	for _, ev := range events {
		el := ev.Element()
		if p := el.Parent(); p != nil {
			p.AppendChild(el)
		}
	}
}

func earliestStart(events []*model.Event) string {
	first := ""
	for _, ev := range events {
		for _, s := range ev.Sessions {
			if s.Start == "" {
				continue
			}
			d := dateutil.Today(s.Start)
			if first == "" || d < first {
				first = d
			}
		}
	}
	return first
}
