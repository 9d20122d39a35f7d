package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todosync/internal/model"
)

func TestEventKey(t *testing.T) {
	t.Parallel()

	stockholm, err := time.LoadLocation("Europe/Stockholm")
	assert.NoError(t, err)

	dateOnly := model.Event{
		Summary:  "Laboratoriemedicin vår T3",
		Start:    time.Date(2025, 3, 10, 0, 0, 0, 0, stockholm),
		DateOnly: true,
	}
	timed := model.Event{
		Summary: "Laboratoriemedicin vår T3",
		Start:   time.Date(2025, 3, 10, 9, 0, 0, 0, stockholm),
	}

	assert.Equal(t, "Laboratoriemedicin vår T3-2025-03-10", EventKey(dateOnly))
	assert.Equal(t, "Laboratoriemedicin vår T3-2025-03-10T09:00:00+01:00", EventKey(timed))

	// Deterministic across calls.
	assert.Equal(t, EventKey(dateOnly), EventKey(dateOnly))
	assert.Equal(t, EventKey(timed), EventKey(timed))

	// Distinct events never share a key.
	assert.NotEqual(t, EventKey(dateOnly), EventKey(timed))
}

func TestEventKeyIgnoresResolvedTimes(t *testing.T) {
	t.Parallel()

	// The key is computed from the original start, so a date-only event
	// keys identically no matter what time the matcher resolves later.
	ev := model.Event{
		Summary:  "Seminarium",
		Start:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DateOnly: true,
	}
	key := EventKey(ev)

	resolved := ev
	resolved.End = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, key, EventKey(resolved))
}
