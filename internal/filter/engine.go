// Package filter applies the form state to the listing: the date range
// hides events through a class, the tag through one injected CSS rule.
package filter

import (
	"cartelera/internal/dom"
	"cartelera/internal/form"
	appLog "cartelera/internal/log"
	"cartelera/internal/model"
	"cartelera/internal/query"
	"cartelera/internal/sessions"
)

// Controls are the ids of the filter controls and page hooks.
type Controls struct {
	Select string
	Ini    string
	Fin    string
	Total  string
	CSS    string
}

// Settings is everything derived once from the loaded page.
type Settings struct {
	Controls    Controls
	Bounds      query.Bounds
	Categories  []string
	CSS         dom.Element
	BaseTitle   string
	DateSupport bool
}

// Engine recomputes visibility whenever the form changes.
type Engine struct {
	doc    dom.Document
	form   *form.Form
	codec  *query.Codec
	index  *sessions.Index
	sync   *query.Syncer
	hist   dom.History
	cfg    Settings
	passes int
}

func New(doc dom.Document, hist dom.History, f *form.Form, ix *sessions.Index, cfg Settings) *Engine {
	return &Engine{
		doc:   doc,
		form:  f,
		codec: query.NewCodec(cfg.Bounds, cfg.Categories, cfg.DateSupport),
		index: ix,
		hist:  hist,
		cfg:   cfg,
		sync: &query.Syncer{
			Doc:       doc,
			History:   hist,
			SelectID:  cfg.Controls.Select,
			BaseTitle: cfg.BaseTitle,
		},
	}
}

// Codec is the engine's query codec.
func (e *Engine) Codec() *query.Codec {
	return e.codec
}

// Settings returns what the engine was built with.
func (e *Engine) Settings() Settings {
	return e.cfg
}

// Passes counts completed Filter calls.
func (e *Engine) Passes() int {
	return e.passes
}

// State reads the controls into a canonical State.
func (e *Engine) State() query.State {
	ini := e.form.ReadDate(e.cfg.Controls.Ini)
	fin := e.form.ReadDate(e.cfg.Controls.Fin)
	if ini != "" && fin != "" && ini > fin {
		ini, fin = fin, ini
	}
	st := query.State{
		Filtro: e.form.ReadString(e.cfg.Controls.Select),
		Ini:    ini,
		Fin:    fin,
	}
	return e.codec.Canonicalize(st)
}

// Filter runs one full pass: date visibility, tag CSS, title/counts and
// the address bar.
func (e *Engine) Filter() query.State {
	st := e.State()
	ok := e.index.VisibleFor(st.Ini, st.Fin)
	for _, el := range e.doc.QueryAll(model.EventSelector) {
		el.ClearStyle("display")
		if ok.Has(el.ID()) {
			el.RemoveClass(model.HiddenClass)
		} else {
			el.AddClass(model.HiddenClass)
		}
	}
	if e.cfg.CSS != nil {
		e.cfg.CSS.SetText(TagRule(st.Filtro))
	} else {
		appLog.Warn("element not found", "id", e.cfg.Controls.CSS)
	}
	e.sync.Sync(st)
	e.passes++
	appLog.Debug("filter pass", "query", query.Serialize(st), "dated_matches", ok.Len())
	return st
}

// TagRule hides every event without tag; no tag, no rule.
func TagRule(tag string) string {
	if tag == "" {
		return ""
	}
	return model.EventSelector + ":not(." + dom.EscapeIdent(tag) + ") {display:none}"
}

// FixDates keeps the end date from preceding the start date: the end
// input's min follows the start, and an earlier end is moved up to it.
func (e *Engine) FixDates() {
	ini := e.form.ReadDate(e.cfg.Controls.Ini)
	fin := e.form.ReadDate(e.cfg.Controls.Fin)
	min := ini
	if min == "" {
		min = e.cfg.Bounds.Min
	}
	e.form.SetAttr(e.cfg.Controls.Fin, "min", min)
	if ini == "" || fin == "" || ini <= fin {
		return
	}
	e.form.SetString(e.cfg.Controls.Fin, ini)
}

// Restore puts the state carried by the address bar into the controls.
func (e *Engine) Restore() query.State {
	search := ""
	if e.hist != nil {
		search = e.hist.Search()
	}
	st := e.codec.Parse(search)
	if st.Filtro != "" {
		e.form.SetString(e.cfg.Controls.Select, st.Filtro)
	} else {
		e.form.Reset(e.cfg.Controls.Select)
	}
	if e.cfg.DateSupport {
		e.form.SetString(e.cfg.Controls.Ini, orDefault(st.Ini, e.cfg.Bounds.Min))
		e.form.SetString(e.cfg.Controls.Fin, orDefault(st.Fin, e.cfg.Bounds.Max))
	}
	return st
}

// Visible lists the events currently shown: not hidden by the date filter
// and carrying the selected tag.
func (e *Engine) Visible() []*model.Event {
	tag := e.form.ReadString(e.cfg.Controls.Select)
	var out []*model.Event
	for _, ev := range model.Scan(e.doc) {
		if ev.Hidden() {
			continue
		}
		if tag != "" && !ev.HasTag(tag) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
