package sync

import (
	"time"

	"todosync/internal/model"
)

// EventKey derives the idempotency key for a personal-feed event.
//
// The key is summary + "-" + a fixed rendering of the ORIGINAL start value:
// date-only events render as "2006-01-02", timed events as RFC3339. It is
// deliberately computed from the start as it appeared in the feed, never
// from a resolved time, so two runs that resolve different times for the
// same entry still collide on the same key.
func EventKey(ev model.Event) string {
	return ev.Summary + "-" + startKey(ev)
}

func startKey(ev model.Event) string {
	if ev.DateOnly {
		return ev.Start.Format("2006-01-02")
	}
	return ev.Start.Format(time.RFC3339)
}
