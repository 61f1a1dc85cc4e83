package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartelera/internal/dom"
	"cartelera/internal/dom/htmldoc"
)

const syncPage = `<html><head><title>Agenda</title></head><body>
<select id="filtro">
<option value="">-</option>
<option value="jazz" data-txt="Jazz">Jazz</option>
<option value="rock" data-txt=" ">Rock</option>
</select>
<div class="evento jazz" id="a"></div>
<div class="evento jazz hide" id="b"></div>
<div class="evento rock" id="c"></div>
</body></html>`

func newSyncer(t *testing.T, href string) (*Syncer, *htmldoc.Document, *dom.MemoryHistory) {
	t.Helper()
	doc, err := htmldoc.ParseString(syncPage)
	require.NoError(t, err)
	hist := dom.NewMemoryHistory(href)
	return &Syncer{Doc: doc, History: hist, SelectID: "filtro", BaseTitle: "Agenda"}, doc, hist
}

func TestSyncLabelsAndTitle(t *testing.T) {
	s, doc, hist := newSyncer(t, "http://x/list")

	doc.ByID("filtro").SetValue("jazz")
	assert.True(t, s.Sync(State{Filtro: "jazz"}))

	var labels []string
	for _, o := range doc.QueryAll("option") {
		labels = append(labels, o.Text())
	}
	assert.Equal(t, []string{"Todos (2)", "Jazz (1)", "  (1)"}, labels)
	assert.Equal(t, "Agenda: Jazz", doc.Query("title").Text())
	assert.Equal(t, "http://x/list?jazz", hist.Href())

	// a blank data-txt leaves the base title
	doc.ByID("filtro").SetValue("rock")
	s.Sync(State{Filtro: "rock"})
	assert.Equal(t, "Agenda", doc.Query("title").Text())
}

func TestSyncSkipsRedundantPush(t *testing.T) {
	s, _, hist := newSyncer(t, "http://x/list?jazz#top")
	assert.False(t, s.Sync(State{Filtro: "jazz"}))
	assert.Equal(t, 1, hist.Len())

	assert.True(t, s.Sync(State{}))
	assert.Equal(t, "http://x/list", hist.Href())
	assert.False(t, s.Sync(State{}))
}

func TestSyncWithoutSelect(t *testing.T) {
	s, doc, _ := newSyncer(t, "http://x/")
	s.SelectID = "missing"
	s.Sync(State{})
	assert.Equal(t, "Agenda", doc.Query("title").Text())
}

func TestSyncCountsTagsThatNeedEscaping(t *testing.T) {
	doc, err := htmldoc.ParseString(`<html><head><title>Agenda</title></head><body>
<select id="filtro">
<option value="">-</option>
<option value="2024" data-txt="2024">2024</option>
<option value="a.b" data-txt="A.B">A.B</option>
</select>
<div class="evento 2024" id="a"></div>
<div class="evento 2024" id="b"></div>
<div class="evento a.b" id="c"></div>
</body></html>`)
	require.NoError(t, err)
	s := &Syncer{Doc: doc, History: dom.NewMemoryHistory("http://x/"), SelectID: "filtro", BaseTitle: "Agenda"}
	s.Sync(State{})

	var labels []string
	for _, o := range doc.QueryAll("option") {
		labels = append(labels, o.Text())
	}
	assert.Equal(t, []string{"Todos (3)", "2024 (2)", "A.B (1)"}, labels)
}
