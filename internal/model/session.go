package model

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"cartelera/internal/dateutil"
	"cartelera/internal/dom"
	appLog "cartelera/internal/log"
)

// SessionEntry is one li of an event's ol.sesiones.
type SessionEntry struct {
	// Start and End are normalized stamps (date or date-time); End may be "".
	Start string
	End   string
	// RRule is the optional data-rrule recurrence (RFC 5545 RRULE text).
	RRule string

	el   dom.Element
	rule *rrule.RRule
}

func scanSession(li dom.Element) *SessionEntry {
	s := &SessionEntry{el: li}
	if v, ok := li.Attr("data-start"); ok {
		s.Start = dateutil.NormalizeStamp(v)
	}
	if v, ok := li.Attr("data-end"); ok {
		s.End = dateutil.NormalizeStamp(v)
	}
	if v, ok := li.Attr("data-rrule"); ok {
		s.RRule = strings.TrimSpace(v)
	}
	return s
}

// NewSession builds a detached session, mostly for tests and exports.
func NewSession(start, end, rule string) *SessionEntry {
	return &SessionEntry{
		Start: dateutil.NormalizeStamp(start),
		End:   dateutil.NormalizeStamp(end),
		RRule: strings.TrimSpace(rule),
	}
}

// Element is the session's li node.
func (s *SessionEntry) Element() dom.Element {
	return s.el
}

// EndsBefore uses the effective end: the last occurrence for recurring
// sessions, End when present, Start otherwise.
func (s *SessionEntry) EndsBefore(c Cutoff) bool {
	return expired(s.EffectiveEnd(), c)
}

// EffectiveEnd is the stamp after which the session is over, or "" when it
// never ends (open-ended recurrence) or carries no usable timestamp.
func (s *SessionEntry) EffectiveEnd() string {
	if s.recurrence() != nil {
		occ, bounded := s.occurrences(time.Time{})
		if !bounded || len(occ) == 0 {
			return ""
		}
		return s.shift(occ[len(occ)-1])
	}
	if s.End != "" {
		return s.End
	}
	return s.Start
}

// Recurring reports a usable RRULE.
func (s *SessionEntry) Recurring() bool {
	return s.recurrence() != nil
}

// Days lists the calendar dates the session covers inside w. Open-ended
// recurrences stop at w.To; with an open w.To they yield nothing.
func (s *SessionEntry) Days(w dateutil.Window) []string {
	if s.Start == "" {
		if s.End == "" {
			return nil
		}
		return dateutil.DaysIn(s.End, s.End, w)
	}
	if s.recurrence() == nil {
		end := s.End
		if end == "" {
			end = s.Start
		}
		return dateutil.DaysIn(s.Start, end, w)
	}

	limit, _ := dateutil.ParseDate(w.To)
	occ, _ := s.occurrences(limit)
	seen := make(map[string]struct{})
	var out []string
	for _, o := range occ {
		from := o.Format(dateutil.DateLayout)
		to := dateutil.Today(s.shift(o))
		for _, d := range dateutil.DaysIn(from, to, w) {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// recurrence parses RRule lazily, anchored at Start.
func (s *SessionEntry) recurrence() *rrule.RRule {
	if s.rule != nil || s.RRule == "" || s.Start == "" {
		return s.rule
	}
	r, err := rrule.StrToRRule(s.RRule)
	if err != nil {
		appLog.Warn("session: bad rrule ignored", "rrule", s.RRule, "err", err)
		s.RRule = ""
		return nil
	}
	r.DTStart(s.startTime())
	s.rule = r
	return r
}

// occurrences expands the rule. Bounded rules (COUNT/UNTIL) are expanded
// fully; open-ended ones only up to limit, and not at all for a zero limit.
func (s *SessionEntry) occurrences(limit time.Time) ([]time.Time, bool) {
	r := s.recurrence()
	bounded := r.OrigOptions.Count > 0 || !r.OrigOptions.Until.IsZero()
	if bounded {
		return r.All(), true
	}
	if limit.IsZero() {
		return nil, false
	}
	return r.Between(s.startTime(), limit.Add(24*time.Hour-time.Second), true), false
}

func (s *SessionEntry) startTime() time.Time {
	layout := dateutil.DateLayout
	if dateutil.HasTime(s.Start) {
		layout = dateutil.StampLayout
	}
	t, _ := time.Parse(layout, s.Start)
	return t
}

// shift maps an occurrence start to that occurrence's end, keeping the
// session's own start-to-end length and granularity.
func (s *SessionEntry) shift(occ time.Time) string {
	if s.End == "" {
		if dateutil.HasTime(s.Start) {
			return occ.Format(dateutil.StampLayout)
		}
		return occ.Format(dateutil.DateLayout)
	}
	endLayout := dateutil.DateLayout
	if dateutil.HasTime(s.End) {
		endLayout = dateutil.StampLayout
	}
	end, err := time.Parse(endLayout, s.End)
	if err != nil {
		return occ.Format(dateutil.DateLayout)
	}
	start := s.startTime()
	// Whole-day offset plus the end's own clock time.
	days := int(truncDay(end).Sub(truncDay(start)).Hours() / 24)
	target := truncDay(occ).AddDate(0, 0, days)
	if endLayout == dateutil.DateLayout {
		return target.Format(dateutil.DateLayout)
	}
	target = target.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute)
	return target.Format(dateutil.StampLayout)
}

func truncDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
