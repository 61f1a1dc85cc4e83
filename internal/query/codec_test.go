package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var bounds = Bounds{Min: "2024-01-01", Max: "2024-12-31"}

func codec() *Codec {
	return NewCodec(bounds, []string{"music", "cine"}, true)
}

func TestParseAndCollapseRules(t *testing.T) {
	c := codec()
	cases := []struct {
		raw  string
		want State
	}{
		// ini == MIN alone is kept: only the full range or fin == MAX collapse
		{"?music&2024-01-01&2024-06-01", State{Filtro: "music", Ini: "2024-01-01", Fin: "2024-06-01"}},
		{"?music&2024-01-01&2024-12-31", State{Filtro: "music"}},
		{"?2024-03-01&2024-12-31", State{Ini: "2024-03-01"}},
		{"?2024-12-31&2024-03-01", State{Ini: "2024-03-01"}},
		{"?2024-03-01", State{Ini: "2024-03-01"}},
		{"2024-05-01&2024-03-01&2024-04-01", State{Ini: "2024-03-01", Fin: "2024-05-01"}},
		{"?jazz&2023-12-31&2025-01-01&2024-02-30", State{}},
		{"?cine&music", State{Filtro: "music"}},
		{"", State{}},
		{"?", State{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Parse(tc.raw), tc.raw)
	}
}

func TestCanonicalizeWithoutDateSupport(t *testing.T) {
	c := NewCodec(bounds, []string{"music"}, false)
	got := c.Canonicalize(State{Filtro: "music", Ini: "2024-03-01", Fin: "2024-04-01"})
	assert.Equal(t, State{Filtro: "music"}, got)
	assert.Equal(t, State{Filtro: "music"}, c.Parse("?music&2024-03-01"))
}

func TestCanonicalizeFillsLoneUpperBound(t *testing.T) {
	c := codec()
	assert.Equal(t, State{Ini: "2024-01-01", Fin: "2024-05-05"}, c.Canonicalize(State{Fin: "2024-05-05"}))
	assert.Equal(t, State{}, c.Canonicalize(State{Fin: "2024-12-31"}))
	assert.Equal(t, State{Ini: "2024-02-02", Fin: "2024-05-05"}, c.Canonicalize(State{Ini: "2024-05-05", Fin: "2024-02-02"}))
}

func reachableStates() []State {
	dates := []string{"", "2024-01-01", "2024-03-15", "2024-07-01", "2024-12-31"}
	var out []State
	for _, tag := range []string{"", "music", "cine"} {
		for _, ini := range dates {
			for _, fin := range dates {
				out = append(out, State{Filtro: tag, Ini: ini, Fin: fin})
			}
		}
	}
	return out
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, support := range []bool{true, false} {
		c := NewCodec(bounds, []string{"music", "cine"}, support)
		for _, s := range reachableStates() {
			once := c.Canonicalize(s)
			assert.Equal(t, once, c.Canonicalize(once), "%+v", s)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	c := codec()
	for _, s := range reachableStates() {
		canon := c.Canonicalize(s)
		assert.Equal(t, canon, c.Parse(Serialize(canon)), "%+v -> %q", s, Serialize(canon))
	}
}

func TestSerialize(t *testing.T) {
	assert.Equal(t, "", Serialize(State{}))
	assert.Equal(t, "?music", Serialize(State{Filtro: "music"}))
	assert.Equal(t, "?2024-02-01&2024-03-01", Serialize(State{Ini: "2024-02-01", Fin: "2024-03-01"}))
	assert.Equal(t, "?cine&2024-02-01", Serialize(State{Filtro: "cine", Ini: "2024-02-01"}))
}

func TestBoundsContains(t *testing.T) {
	assert.True(t, bounds.Contains("2024-01-01"))
	assert.True(t, bounds.Contains("2024-12-31"))
	assert.False(t, bounds.Contains("2025-01-01"))
	assert.True(t, Bounds{}.Contains("1999-01-01"))
}
