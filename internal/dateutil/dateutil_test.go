package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Classification
	}{
		{"2023-01-01", Valid},
		{"2024-02-29", Valid},
		{"2023-02-30", Invalid},
		{"2023-02-29", Invalid},
		{"2023-13-01", Invalid},
		{"2023-00-10", Invalid},
		{"2023-1-01", NotADatePattern},
		{"music", NotADatePattern},
		{"2023-01-01 10:00", NotADatePattern},
		{"", NotADatePattern},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.in), tc.in)
	}
}

func TestIsValidCalendarDate(t *testing.T) {
	assert.False(t, IsValidCalendarDate("2023-02-30"))
	assert.True(t, IsValidCalendarDate("2023-01-01"))
}

func TestNowAndToday(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	clock := FixedClock(time.Date(2024, 6, 10, 9, 5, 33, 0, loc))

	now := Now(clock)
	assert.Equal(t, "2024-06-10 09:05", now)
	assert.Equal(t, "2024-06-10", Today(now))
	assert.True(t, HasTime(now))
	assert.False(t, HasTime(Today(now)))
}

func TestNormalizeStamp(t *testing.T) {
	cases := map[string]string{
		"2024-06-10":          "2024-06-10",
		" 2024-06-10 20:30 ":  "2024-06-10 20:30",
		"2024-06-10T20:30:00": "2024-06-10 20:30",
		"2024-06-10T25:30":    "",
		"2024-06-31":          "",
		"2024-06-10x":         "",
		"tomorrow":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeStamp(in), in)
	}
}

func TestDaysInOpenWindow(t *testing.T) {
	days := DaysIn("2024-02-27", "2024-03-01 22:00", Window{})
	require.Len(t, days, 4)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, days)

	assert.Equal(t, []string{"2024-03-05"}, DaysIn("2024-03-05", "2024-03-01", Window{}))
	assert.Len(t, DaysIn("2024-01-01", "2024-12-31", Window{MaxDays: 10}), 10)
	assert.Nil(t, DaysIn("nope", "2024-01-01", Window{}))
}

func TestDaysIn(t *testing.T) {
	w := Window{From: "2024-06-10", To: "2024-06-12"}
	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12"}, DaysIn("2023-01-01", "2025-06-30", w))
	assert.Equal(t, []string{"2024-06-11"}, DaysIn("2024-06-11 20:00", "", w))
	// wholly outside: the date nearest the window
	assert.Equal(t, []string{"2024-06-01"}, DaysIn("2024-05-20", "2024-06-01", w))
	assert.Equal(t, []string{"2024-07-01"}, DaysIn("2024-07-01", "2024-07-09", w))

	// a mistyped year is bounded by the window, not expanded
	assert.Len(t, DaysIn("2024-06-01", "2204-06-01", w), 3)
	assert.Len(t, DaysIn("2024-06-01", "2204-06-01", Window{From: "2024-06-10", MaxDays: 5}), 5)
}
