package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartelera/internal/dom"
	"cartelera/internal/dom/htmldoc"
	"cartelera/internal/filter"
	"cartelera/internal/fixture"
	"cartelera/internal/form"
	"cartelera/internal/model"
	"cartelera/internal/query"
	"cartelera/internal/sessions"
)

func newEngine(t *testing.T, href string) (*filter.Engine, *htmldoc.Document, *dom.MemoryHistory) {
	t.Helper()
	doc, err := htmldoc.ParseString(fixture.Listing)
	require.NoError(t, err)
	ids := fixture.Controls()
	f := form.Resolve(doc, ids.Select, ids.Ini, ids.Fin)
	hist := dom.NewMemoryHistory(href)
	ix := sessions.Build(model.Scan(doc), sessions.Options{Horizon: "2024-12-31"})
	eng := filter.New(doc, hist, f, ix, filter.Settings{
		Controls:    ids,
		Bounds:      query.Bounds{Min: "2024-06-01", Max: "2024-12-31"},
		Categories:  []string{"cine", "teatro", "musica"},
		CSS:         doc.ByID(ids.CSS),
		BaseTitle:   "Eventos",
		DateSupport: true,
	})
	return eng, doc, hist
}

func TestTagRule(t *testing.T) {
	assert.Equal(t, "", filter.TagRule(""))
	assert.Equal(t, "div.evento:not(.cine) {display:none}", filter.TagRule("cine"))
	assert.Equal(t, `div.evento:not(.\32 024) {display:none}`, filter.TagRule("2024"))
}

func TestRestoreThenFilter(t *testing.T) {
	eng, doc, hist := newEngine(t, "https://a/?2024-07-01&musica&2024-06-20")

	restored := eng.Restore()
	assert.Equal(t, query.State{Filtro: "musica", Ini: "2024-06-20", Fin: "2024-07-01"}, restored)
	assert.Equal(t, "2024-06-20", doc.ByID("ini").Value())
	assert.Equal(t, "2024-07-01", doc.ByID("fin").Value())

	st := eng.Filter()
	assert.Equal(t, restored, st)
	assert.Equal(t, 1, eng.Passes())

	assert.Equal(t, []string{"e1", "e2", "e3", "e6"}, htmldoc.SortedIDs(doc.QueryAll("div.evento.hide")))
	assert.Equal(t, "div.evento:not(.musica) {display:none}", doc.ByID("jscss").Text())
	style, _ := doc.ByID("e4").Attr("style")
	assert.Equal(t, "color:red", style)

	var visible []string
	for _, ev := range eng.Visible() {
		visible = append(visible, ev.ID)
	}
	assert.Equal(t, []string{"e5"}, visible)
	assert.Equal(t, "https://a/?musica&2024-06-20&2024-07-01", hist.Href())
	assert.Equal(t, "Eventos: Música", doc.Query("title").Text())
}

func TestRestoreWithoutQueryResetsControls(t *testing.T) {
	eng, doc, _ := newEngine(t, "https://a/")
	doc.ByID("categoria").SetValue("cine")
	doc.ByID("ini").SetValue("2024-08-01")

	assert.Equal(t, query.State{}, eng.Restore())
	assert.Equal(t, "", doc.ByID("categoria").Value())
	assert.Equal(t, "2024-06-01", doc.ByID("ini").Value())
	assert.Equal(t, "2024-12-31", doc.ByID("fin").Value())

	eng.Filter()
	assert.Empty(t, doc.QueryAll("div.evento.hide"))
	assert.Equal(t, "", doc.ByID("jscss").Text())
}

func TestStateSwapsReversedRange(t *testing.T) {
	eng, doc, _ := newEngine(t, "https://a/")
	doc.ByID("ini").SetValue("2024-07-10")
	doc.ByID("fin").SetValue("2024-07-02")
	assert.Equal(t, query.State{Ini: "2024-07-02", Fin: "2024-07-10"}, eng.State())
}

func TestFixDates(t *testing.T) {
	eng, doc, _ := newEngine(t, "https://a/")
	fin := doc.ByID("fin")

	doc.ByID("ini").SetValue("2024-07-10")
	fin.SetValue("2024-07-02")
	eng.FixDates()
	min, _ := fin.Attr("min")
	assert.Equal(t, "2024-07-10", min)
	assert.Equal(t, "2024-07-10", fin.Value())

	// an ordered range is left alone
	fin.SetValue("2024-08-01")
	eng.FixDates()
	assert.Equal(t, "2024-08-01", fin.Value())
}
