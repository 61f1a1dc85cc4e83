// Package dateutil holds the calendar-date helpers shared by the query codec,
// the session index and the staleness reconciler.
//
// Dates travel as fixed-width strings ("2006-01-02" and "2006-01-02 15:04")
// so that lexical comparison matches chronological order.
package dateutil

import (
	"regexp"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar-date form used in URLs and date inputs.
	DateLayout = "2006-01-02"
	// StampLayout is the date-time form used in data-start / data-end.
	StampLayout = "2006-01-02 15:04"
)

// Clock returns the current moment. Tests inject a fixed one.
type Clock func() time.Time

// SystemClock reads the wall clock in loc (time.Local when nil).
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Classification is the outcome of looking at a token as a date.
type Classification int

const (
	// NotADatePattern means the token does not look like YYYY-MM-DD at all.
	NotADatePattern Classification = iota
	// Invalid means the pattern matches but the date does not exist
	// (e.g. 2023-02-30).
	Invalid
	// Valid is a real calendar date.
	Valid
)

func (c Classification) String() string {
	switch c {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "not-a-date"
	}
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Classify reports whether s is a YYYY-MM-DD token and, if so, whether it
// names a day that exists. time.Parse rejects out-of-range days instead of
// rolling them over, and the re-format check guards the rest.
func Classify(s string) Classification {
	if !datePattern.MatchString(s) {
		return NotADatePattern
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Invalid
	}
	if t.Format(DateLayout) != s {
		return Invalid
	}
	return Valid
}

// IsValidCalendarDate is Classify(s) == Valid.
func IsValidCalendarDate(s string) bool {
	return Classify(s) == Valid
}

// Stamp formats t as "YYYY-MM-DD HH:MM".
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// Now is Stamp(clock()).
func Now(clock Clock) string {
	return Stamp(clock())
}

// Today returns the date part of a stamp.
func Today(stamp string) string {
	if len(stamp) < len(DateLayout) {
		return stamp
	}
	return stamp[:len(DateLayout)]
}

// NormalizeStamp accepts "YYYY-MM-DD", "YYYY-MM-DD HH:MM" and the ISO
// "YYYY-MM-DDTHH:MM[:SS]" variants and returns either a date or a
// "YYYY-MM-DD HH:MM" stamp. Anything else yields "".
func NormalizeStamp(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return ""
	}
	date := s[:len(DateLayout)]
	if Classify(date) != Valid {
		return ""
	}
	rest := s[len(DateLayout):]
	if rest == "" {
		return date
	}
	if rest[0] != ' ' && rest[0] != 'T' {
		return ""
	}
	clock := rest[1:]
	if len(clock) < 5 {
		return ""
	}
	if _, err := time.Parse("15:04", clock[:5]); err != nil {
		return ""
	}
	return date + " " + clock[:5]
}

// HasTime reports whether a normalized stamp carries a time of day.
func HasTime(stamp string) bool {
	return len(stamp) == len(StampLayout)
}

// ParseDate parses the date part of a normalized stamp.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, Today(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Window limits date expansion to [From, To]; an empty bound is open.
type Window struct {
	From string
	To   string
	// MaxDays caps the number of dates returned; 0 means no cap.
	MaxDays int
}

// DaysIn lists the dates from start to end inclusive that fall inside w.
// An end before start yields just start.
// A range lying wholly outside w yields its single date nearest to w, so
// that comparisons against dates inside w still see it on the right side.
func DaysIn(start, end string, w Window) []string {
	from, ok := ParseDate(start)
	if !ok {
		return nil
	}
	to, ok := ParseDate(end)
	if !ok || to.Before(from) {
		to = from
	}
	lo, hi := from, to
	if t, ok := ParseDate(w.From); ok && t.After(lo) {
		lo = t
	}
	if t, ok := ParseDate(w.To); ok && t.Before(hi) {
		hi = t
	}
	if hi.Before(lo) {
		if t, ok := ParseDate(w.To); ok && from.After(t) {
			return []string{from.Format(DateLayout)}
		}
		return []string{to.Format(DateLayout)}
	}

	n := int(hi.Sub(lo).Hours()/24) + 1
	if w.MaxDays > 0 && n > w.MaxDays {
		n = w.MaxDays
	}
	out := make([]string, 0, n)
	for d := lo; len(out) < n; d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}
