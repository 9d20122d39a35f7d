package model

import "time"

// Event is the normalized representation of a single calendar entry as
// produced by the ICS layer. The sync core consumes it read-only.
type Event struct {
	SourceID string // feed identifier (e.g., config feed ID)
	UID      string // iCalendar UID, may be empty for malformed feeds

	Summary     string
	Description string
	Location    string

	// Start is the event start. For date-only entries (DTSTART;VALUE=DATE)
	// it is midnight of that day in the feed's timezone and DateOnly is set.
	Start time.Time
	// End is the event end; the zero value means the feed did not specify one.
	End time.Time

	DateOnly bool
}

// HasEnd reports whether the feed carried an explicit DTEND.
func (e Event) HasEnd() bool {
	return !e.End.IsZero()
}

// Date returns the calendar date of the event start in the start's own
// location, with the time-of-day zeroed.
func (e Event) Date() time.Time {
	y, m, d := e.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Start.Location())
}

// Task is a fully resolved unit of work handed to the task sink.
// Due is always a concrete instant, never a bare date.
type Task struct {
	Title       string
	Due         time.Time
	Description string
}
