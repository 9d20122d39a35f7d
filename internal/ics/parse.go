package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"

	"todosync/internal/model"
)

// ParsedEvent is a VEVENT as produced by the parser, before recurrence
// expansion. Recurrence metadata rides alongside the normalized event.
type ParsedEvent struct {
	Event model.Event

	RawRRule string
	ExDates  []time.Time
}

// Parser turns raw ICS payloads into ParsedEvents.
type Parser struct {
	// Loc is the location used for date-only values and floating local
	// times. If nil, time.Local is used.
	Loc *time.Location
}

func (p Parser) location() *time.Location {
	if p.Loc != nil {
		return p.Loc
	}
	return time.Local
}

// Parse parses a single ICS payload into a list of ParsedEvent.
//
//   - The underlying library's VTIMEZONE/TZID handling constructs proper
//     time.Time values for timed events.
//   - Date-only events (VALUE=DATE or no 'T' in DTSTART) are resolved to
//     midnight in the parser's location and flagged DateOnly.
//   - Events without DTSTART are skipped; the sync core never sees them.
func (p Parser) Parse(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := p.parseVEvent(src, comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			log.Warn().Err(perr).Str("id", src.ID).Msg("ics vevent skipped")
			continue
		}
		events = append(events, ev)
	}

	log.Debug().Str("id", src.ID).Int("event_count", len(events)).Msg("ics parse completed")
	return events, nil
}

func (p Parser) parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.Event.SourceID = src.ID

	if uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId); uidProp != nil {
		out.Event.UID = uidProp.Value
	}

	if prop := ve.GetProperty(ical.ComponentPropertySummary); prop != nil {
		out.Event.Summary = prop.Value
	}
	if prop := ve.GetProperty(ical.ComponentPropertyDescription); prop != nil {
		out.Event.Description = prop.Value
	}
	if prop := ve.GetProperty(ical.ComponentPropertyLocation); prop != nil {
		out.Event.Location = prop.Value
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil || dtStartProp.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	// Detect date-only: VALUE=DATE parameter or no 'T' in the value.
	dateOnly := !strings.Contains(dtStartProp.Value, "T")
	if params := dtStartProp.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			dateOnly = true
		}
	}
	out.Event.DateOnly = dateOnly

	if dateOnly {
		start, err := p.parseICSTime(dtStartProp.Value)
		if err != nil {
			return out, err
		}
		out.Event.Start = start

		if dtEndProp := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEndProp != nil {
			if end, err := p.parseICSTime(dtEndProp.Value); err == nil {
				out.Event.End = end
			}
		}
	} else {
		// The library's helpers handle TZID lookups against VTIMEZONE.
		start, err := ve.GetStartAt()
		if err != nil {
			// Fall back to raw value parsing for non-standard feeds.
			start, err = p.parseICSTime(dtStartProp.Value)
			if err != nil {
				return out, err
			}
		}
		out.Event.Start = start

		if end, err := ve.GetEndAt(); err == nil {
			out.Event.End = end
		}
	}

	// RRULE is kept raw here; expansion happens in expand.go.
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE can appear multiple times, each with a comma-separated list.
	for _, prop := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(prop.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := p.parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. Floating values
// and bare dates resolve in the parser's configured location.
func (p Parser) parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Floating local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, p.location())
	}

	// Date-only, e.g., 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, p.location())
}
