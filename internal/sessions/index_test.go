package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartelera/internal/model"
)

func event(id string, sessions ...*model.SessionEntry) *model.Event {
	return &model.Event{ID: id, Sessions: sessions}
}

func TestVisibleForSpanningSession(t *testing.T) {
	ix := Build([]*model.Event{
		event("E1", model.NewSession("2024-03-01", "2024-03-03", "")),
	}, Options{})

	sel := ix.VisibleFor("2024-03-02", "2024-03-02")
	assert.False(t, sel.All())
	assert.Equal(t, []string{"E1"}, sel.IDs())

	sel = ix.VisibleFor("2024-03-04", "2024-03-05")
	assert.False(t, sel.All())
	assert.Empty(t, sel.IDs())
	assert.Equal(t, 0, sel.Len())
}

func TestVisibleForNoBoundsIsSentinel(t *testing.T) {
	ix := Build(nil, Options{})
	sel := ix.VisibleFor("", "")
	assert.True(t, sel.All())
	assert.True(t, sel.Has("anything"))
	assert.Nil(t, sel.IDs())

	empty := ix.VisibleFor("2024-01-01", "")
	assert.False(t, empty.All())
	assert.Equal(t, 0, empty.Len())
}

func TestUndatedEventsAlwaysIncluded(t *testing.T) {
	ix := Build([]*model.Event{
		event("E1", model.NewSession("2024-03-01 20:00", "", "")),
		event("E2"),
		event("E3", model.NewSession("", "", "")),
	}, Options{})
	require.Equal(t, []string{"E2", "E3"}, ix.Undated())

	ranges := [][2]string{
		{"2024-03-01", "2024-03-01"},
		{"2030-01-01", "2030-12-31"},
		{"2024-01-01", ""},
		{"", "2023-01-01"},
	}
	for _, r := range ranges {
		sel := ix.VisibleFor(r[0], r[1])
		for _, id := range ix.Undated() {
			assert.True(t, sel.Has(id), "%v should include %s", r, id)
		}
	}
	assert.True(t, ix.VisibleFor("2024-03-01", "").Has("E1"))
	assert.False(t, ix.VisibleFor("", "2024-02-29").Has("E1"))
}

func TestOpenBounds(t *testing.T) {
	ix := Build([]*model.Event{
		event("early", model.NewSession("2024-01-10", "", "")),
		event("late", model.NewSession("2024-09-10", "", "")),
	}, Options{})

	assert.Equal(t, []string{"late"}, ix.VisibleFor("2024-05-01", "").IDs())
	assert.Equal(t, []string{"early"}, ix.VisibleFor("", "2024-05-01").IDs())
	assert.Equal(t, []string{"2024-01-10", "2024-09-10"}, ix.Dates())
}

func TestRecurringSessionIndexedPerOccurrence(t *testing.T) {
	ix := Build([]*model.Event{
		event("weekly", model.NewSession("2024-03-05 19:00", "", "FREQ=WEEKLY;COUNT=3")),
		event("daily", model.NewSession("2024-03-01", "", "FREQ=DAILY")),
	}, Options{Horizon: "2024-03-03"})

	assert.Equal(t, []string{"weekly"}, ix.VisibleFor("2024-03-12", "2024-03-12").IDs())
	assert.Empty(t, ix.VisibleFor("2024-03-13", "2024-03-18").IDs())
	assert.Equal(t, []string{"daily"}, ix.VisibleFor("2024-03-02", "2024-03-02").IDs())
	// the open-ended rule stops at the horizon
	assert.Empty(t, ix.VisibleFor("2024-03-04", "2024-03-04").IDs())
}

func TestLongSessionSpansQueryRange(t *testing.T) {
	expo := event("EXPO", model.NewSession("2023-01-01", "2025-06-30", ""))

	for _, opts := range []Options{{}, {From: "2024-06-10", Horizon: "2025-12-31"}} {
		ix := Build([]*model.Event{expo}, opts)
		assert.True(t, ix.VisibleFor("2024-06-10", "2024-06-20").Has("EXPO"), "%+v", opts)
		assert.True(t, ix.VisibleFor("2025-06-30", "").Has("EXPO"), "%+v", opts)
		assert.False(t, ix.VisibleFor("2025-07-01", "").Has("EXPO"), "%+v", opts)
		assert.Empty(t, ix.Undated())
	}

	ix := Build([]*model.Event{expo}, Options{From: "2024-06-10", Horizon: "2025-12-31"})
	dates := ix.Dates()
	assert.Equal(t, "2024-06-10", dates[0])
	assert.Equal(t, "2025-06-30", dates[len(dates)-1])
}

func TestSessionsOutsideWindowKeepTheirSide(t *testing.T) {
	ix := Build([]*model.Event{
		event("past", model.NewSession("2024-05-01", "2024-05-03", "")),
		event("far", model.NewSession("2026-03-01", "2026-03-05", "")),
	}, Options{From: "2024-06-10", Horizon: "2025-12-31"})

	assert.Equal(t, []string{"2024-05-03", "2026-03-01"}, ix.Dates())
	assert.Equal(t, []string{"far"}, ix.VisibleFor("2025-12-01", "").IDs())
	assert.Empty(t, ix.VisibleFor("2024-06-10", "2025-12-31").IDs())
	assert.Empty(t, ix.Undated())
}
