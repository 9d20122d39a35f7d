package ics

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/teambition/rrule-go"

	"todosync/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig bounds recurrence expansion. Non-recurring events always
// pass through unchanged; the window only limits RRULE expansion so an
// unbounded rule cannot flood the sync with occurrences.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive window for RRULE occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap per recurring event.
	// If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// Expand flattens ParsedEvents into concrete events. Single events are
// passed through; recurring events are expanded within the configured
// window with EXDATE exceptions removed. DateOnly and event duration are
// preserved on every occurrence.
func Expand(events []ParsedEvent, cfg ExpandConfig) []model.Event {
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.RawRRule == "" {
			out = append(out, ev.Event)
			continue
		}
		out = append(out, expandRecurring(ev, cfg)...)
	}
	return out
}

func expandRecurring(ev ParsedEvent, cfg ExpandConfig) []model.Event {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		log.Warn().Err(err).Str("uid", ev.Event.UID).Str("rrule", ev.RawRRule).
			Msg("unparseable RRULE; using base event only")
		return []model.Event{ev.Event}
	}
	r.DTStart(ev.Event.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Align EXDATE location with the event's start for exact matching.
		set.ExDate(ex.In(ev.Event.Start.Location()))
	}

	rangeStart := cfg.RangeStart.In(ev.Event.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Event.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		log.Warn().Str("uid", ev.Event.UID).Int("cap", cfg.MaxOccurrencesPerEvent).
			Msg("recurrence expansion truncated")
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
	}

	var dur time.Duration
	if ev.Event.HasEnd() {
		dur = ev.Event.End.Sub(ev.Event.Start)
	}

	out := make([]model.Event, 0, len(occTimes))
	for _, start := range occTimes {
		occ := ev.Event
		occ.Start = start
		if dur > 0 {
			occ.End = start.Add(dur)
		} else {
			occ.End = time.Time{}
		}
		out = append(out, occ)
	}
	return out
}
