package query

import (
	"fmt"
	"strings"

	"cartelera/internal/dom"
	appLog "cartelera/internal/log"
	"cartelera/internal/model"
)

// AllLabel names the option without a tag when it has no data-txt.
const AllLabel = "Todos"

// Syncer mirrors the filter state onto the page chrome (title, option
// counts) and the address bar.
type Syncer struct {
	Doc     dom.Document
	History dom.History
	// SelectID is the tag selector's id.
	SelectID string
	// BaseTitle is the page title captured at load.
	BaseTitle string
}

// Sync refreshes the title and option labels, then pushes the serialized
// canonical state unless the address bar already shows it. It reports
// whether a history entry was added.
func (s *Syncer) Sync(st State) bool {
	s.updateLabels()
	q := Serialize(st)
	if s.History == nil {
		return false
	}
	if s.History.Search() == q {
		return false
	}
	s.History.PushState(dom.WithoutQuery(s.History.Href()) + q)
	appLog.Debug("history push", "query", q)
	return true
}

func (s *Syncer) updateLabels() {
	sel := s.Doc.ByID(s.SelectID)
	if sel == nil {
		appLog.Warn("element not found", "id", s.SelectID)
		s.setTitle("")
		return
	}
	selected := sel.Value()
	label := ""
	for _, o := range sel.QueryAll("option") {
		txt, ok := o.Attr("data-txt")
		if !ok {
			txt = AllLabel
		}
		// read before SetText: an option without value attribute takes its text
		val := o.Value()
		o.SetText(fmt.Sprintf("%s (%d)", txt, s.count(strings.TrimSpace(val))))
		if val == selected && ok {
			label = strings.TrimSpace(txt)
		}
	}
	s.setTitle(label)
}

// count is the number of events not hidden by the date filter, restricted
// to tag when given.
func (s *Syncer) count(tag string) int {
	sel := model.EventSelector
	if tag != "" {
		sel += "." + dom.EscapeIdent(tag)
	}
	return len(s.Doc.QueryAll(sel + ":not(." + model.HiddenClass + ")"))
}

func (s *Syncer) setTitle(label string) {
	title := s.Doc.Query("title")
	if title == nil {
		return
	}
	if label == "" {
		title.SetText(s.BaseTitle)
		return
	}
	title.SetText(s.BaseTitle + ": " + label)
}
