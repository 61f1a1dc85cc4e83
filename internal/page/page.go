// Package page wires the filter layer to a loaded document. Boot is the
// whole load sequence; both the browser runtime and the headless tooling
// call it.
package page

import (
	"strings"

	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
	"cartelera/internal/filter"
	"cartelera/internal/form"
	appLog "cartelera/internal/log"
	"cartelera/internal/model"
	"cartelera/internal/sessions"
	"cartelera/internal/stale"
)

// Options tune Boot.
type Options struct {
	Controls filter.Controls
	Clock    dateutil.Clock
	// RecurrenceHorizonDays bounds open-ended recurring sessions past the
	// end of the selectable range.
	RecurrenceHorizonDays int
	// SkipPrune leaves stale events in place (for pages pruned at build
	// time with a known clock).
	SkipPrune bool
}

// Page is a booted document.
type Page struct {
	Engine *filter.Engine
	Index  *sessions.Index
	Report stale.Report
}

// Boot runs, in order: staleness pruning, settings capture, indexing,
// restore from the URL, the end-date fix, the first filter pass and
// listener registration. It then marks the body ready.
func Boot(doc dom.Document, hist dom.History, opts Options) *Page {
	ids := opts.Controls
	if opts.Clock == nil {
		opts.Clock = dateutil.SystemClock(nil)
	}
	f := form.Resolve(doc, ids.Select, ids.Ini, ids.Fin)

	p := &Page{}
	if !opts.SkipPrune {
		p.Report = stale.New(doc, f, stale.Controls{Ini: ids.Ini, Total: ids.Total}, opts.Clock).Run()
	}

	cfg := settings(doc, f, ids)
	horizon := cfg.Bounds.Max
	if t, ok := dateutil.ParseDate(horizon); ok && opts.RecurrenceHorizonDays > 0 {
		horizon = t.AddDate(0, 0, opts.RecurrenceHorizonDays).Format(dateutil.DateLayout)
	}
	p.Index = sessions.Build(model.Scan(doc), sessions.Options{From: cfg.Bounds.Min, Horizon: horizon})

	eng := filter.New(doc, hist, f, p.Index, cfg)
	p.Engine = eng
	eng.Restore()

	if c := f.Control(ids.Ini); c != nil {
		c.Element().OnChange(eng.FixDates)
	}
	eng.FixDates()
	for _, el := range doc.QueryAll("input, select") {
		el.OnChange(func() { eng.Filter() })
	}
	if hist != nil {
		hist.OnPopState(func() {
			eng.Restore()
			eng.FixDates()
			eng.Filter()
		})
	}
	eng.Filter()

	if body := doc.Body(); body != nil {
		body.AddClass("js")
		if !cfg.DateSupport {
			body.AddClass("noinputdate")
		}
		body.SetAttr("data-ready", "true")
	}
	if hist != nil && strings.HasPrefix(hist.Href(), "file:") {
		appLog.Debug("file links fixed", "links", FixFileLinks(doc))
	}
	appLog.Info("page ready",
		"events", len(doc.QueryAll(model.EventSelector)),
		"min", cfg.Bounds.Min,
		"max", cfg.Bounds.Max,
		"categories", len(cfg.Categories),
		"indexed_days", len(p.Index.Dates()),
		"undated", len(p.Index.Undated()),
		"date_input", cfg.DateSupport,
	)
	return p
}

// settings captures the page facts that stay fixed afterwards.
func settings(doc dom.Document, f *form.Form, ids filter.Controls) filter.Settings {
	cfg := filter.Settings{
		Controls:    ids,
		DateSupport: doc.SupportsDateInput(),
		CSS:         doc.ByID(ids.CSS),
	}
	cfg.Bounds.Min = f.Attr(ids.Ini, "min")
	cfg.Bounds.Max = f.Attr(ids.Ini, "max")
	if sel := doc.ByID(ids.Select); sel != nil {
		for _, o := range sel.QueryAll("option") {
			if v := strings.TrimSpace(o.Value()); v != "" {
				cfg.Categories = append(cfg.Categories, v)
			}
		}
	}
	if t := doc.Query("title"); t != nil {
		cfg.BaseTitle = strings.TrimSpace(t.Text())
	}
	return cfg
}
