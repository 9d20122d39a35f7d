package sync

import (
	"strings"

	"todosync/internal/model"
)

const zoomPrefix = "Zoom "

// AnnotateZoom prefixes "Zoom " onto the title when the event's location
// mentions "zoom" or its description mentions "zoom meeting" (both
// case-insensitive). Applying it twice yields the same result as once.
func AnnotateZoom(title string, ev model.Event) string {
	loc := strings.ToLower(ev.Location)
	desc := strings.ToLower(ev.Description)

	if !strings.Contains(loc, "zoom") && !strings.Contains(desc, "zoom meeting") {
		return title
	}
	if len(title) >= len(zoomPrefix) && strings.EqualFold(title[:len(zoomPrefix)], zoomPrefix) {
		return title
	}
	return zoomPrefix + title
}
