// Package ics exports listing events as an iCalendar feed.
package ics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"

	"cartelera/internal/dateutil"
	appLog "cartelera/internal/log"
	"cartelera/internal/model"
)

// Options shape the exported calendar.
type Options struct {
	ProdID string
	// Timezone is written as X-WR-TIMEZONE.
	Timezone string
	// Location is the zone session stamps are wall times in. Nil means UTC.
	Location     *time.Location
	CalendarName string
	// UIDDomain is appended to every UID. Defaults to "cartelera".
	UIDDomain string
	// Stamp is the DTSTAMP of every VEVENT. Zero means now.
	Stamp time.Time
}

type entry struct {
	uid     string
	ev      *model.Event
	s       *model.SessionEntry
	allDay  bool
	start   time.Time
	end     time.Time
	hasEnd  bool
	sortKey string
}

// Export renders one VEVENT per session of events. Sessions without any
// usable stamp are skipped, as are events without sessions.
func Export(events []*model.Event, opts Options) (string, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "cartelera"
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	var entries []entry
	var errs []error
	for _, ev := range events {
		for _, s := range ev.Sessions {
			e, ok, err := newEntry(ev, s, opts)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if ok {
				entries = append(entries, e)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].sortKey != entries[j].sortKey {
			return entries[i].sortKey < entries[j].sortKey
		}
		return entries[i].uid < entries[j].uid
	})

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProdID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}
	if opts.CalendarName != "" {
		cal.SetXWRCalName(opts.CalendarName)
	}

	for _, e := range entries {
		vev := cal.AddEvent(e.uid)
		vev.SetDtStampTime(opts.Stamp)
		vev.SetStatus(ical.ObjectStatusConfirmed)
		vev.SetSummary(e.ev.Title)
		if e.ev.URL != "" {
			vev.SetURL(e.ev.URL)
		}
		for _, tag := range e.ev.Tags {
			vev.AddProperty(ical.ComponentPropertyCategories, tag)
		}
		if e.allDay {
			vev.SetAllDayStartAt(e.start)
			if e.hasEnd {
				vev.SetAllDayEndAt(e.end)
			}
		} else {
			vev.SetStartAt(e.start)
			if e.hasEnd {
				vev.SetEndAt(e.end)
			}
		}
		if e.s.Recurring() {
			vev.AddRrule(e.s.RRule)
		}
	}

	appLog.Debug("ics export", "events", len(events), "vevents", len(entries))
	return cal.Serialize(), nil
}

func newEntry(ev *model.Event, s *model.SessionEntry, opts Options) (entry, bool, error) {
	startStamp, endStamp := s.Start, s.End
	if startStamp == "" {
		startStamp, endStamp = endStamp, ""
	}
	if startStamp == "" {
		return entry{}, false, nil
	}

	e := entry{
		ev:      ev,
		s:       s,
		allDay:  !dateutil.HasTime(startStamp),
		sortKey: startStamp + "|" + endStamp,
	}
	start, err := parseWall(startStamp, opts.Location)
	if err != nil {
		return entry{}, false, fmt.Errorf("ics: event %s: %w", ev.ID, err)
	}
	e.start = start

	if e.allDay {
		// DTEND of an all-day event is exclusive.
		last := start
		if endStamp != "" {
			if d, err := parseWall(dateutil.Today(endStamp), opts.Location); err == nil && !d.Before(start) {
				last = d
			}
		}
		e.end = last.AddDate(0, 0, 1)
		e.hasEnd = true
	} else if endStamp != "" {
		end, err := parseWall(endStamp, opts.Location)
		if err != nil {
			return entry{}, false, fmt.Errorf("ics: event %s: %w", ev.ID, err)
		}
		if !end.Before(start) {
			e.end, e.hasEnd = end, true
		}
	}

	e.uid = fmt.Sprintf("%s-%s@%s", ev.ID, start.UTC().Format("20060102T150405Z"), opts.UIDDomain)
	return e, true, nil
}

// parseWall reads a normalized stamp as a wall time in loc.
func parseWall(stamp string, loc *time.Location) (time.Time, error) {
	layout := dateutil.DateLayout
	if dateutil.HasTime(stamp) {
		layout = dateutil.StampLayout
	}
	t, err := time.ParseInLocation(layout, stamp, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", stamp, err)
	}
	return t, nil
}
