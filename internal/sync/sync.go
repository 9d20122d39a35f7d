package sync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"todosync/internal/model"
)

// DedupStore records which event identifiers have already produced a task.
// Implementations must treat ids as opaque keys and make MarkSynced an
// idempotent insert-if-absent so overlapping runs cannot double-create.
type DedupStore interface {
	HasBeenSynced(ctx context.Context, id string) (bool, error)
	MarkSynced(ctx context.Context, id string) error
}

// TaskSink creates a task in the external tracker and returns its reference.
type TaskSink interface {
	CreateTask(ctx context.Context, task model.Task) (string, error)
}

// TimeOfDay is a wall-clock time used for fallback due instants.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Default fallback window for date-only events with no reference match:
// late in the evening of the same day, so the task still surfaces on the
// correct date.
var (
	DefaultFallbackStart = TimeOfDay{Hour: 23, Minute: 0}
	DefaultFallbackEnd   = TimeOfDay{Hour: 23, Minute: 59}
)

// Options configures a Syncer.
type Options struct {
	Titles TitleExtractor
	// Exclude lists substrings (course/section codes) whose presence in a
	// summary disqualifies the event entirely.
	Exclude []string

	FallbackStart TimeOfDay
	FallbackEnd   TimeOfDay

	// DryRun logs would-be creations without calling the sink or store.
	DryRun bool
}

// RunStats summarizes one reconciliation pass.
type RunStats struct {
	Processed     int `json:"processed"`
	Created       int `json:"created"`
	AlreadySynced int `json:"already_synced"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
}

// Syncer runs one reconciliation pass over a personal-feed event sequence,
// resolving times against the reference feed and creating each qualifying
// event as a task exactly once.
type Syncer struct {
	store   DedupStore
	sink    TaskSink
	titles  TitleExtractor
	matcher Matcher
	exclude []string

	fallbackStart TimeOfDay
	fallbackEnd   TimeOfDay
	dryRun        bool
}

// New constructs a Syncer around the given collaborators.
func New(store DedupStore, sink TaskSink, opts Options) *Syncer {
	if opts.FallbackStart == (TimeOfDay{}) {
		opts.FallbackStart = DefaultFallbackStart
	}
	if opts.FallbackEnd == (TimeOfDay{}) {
		opts.FallbackEnd = DefaultFallbackEnd
	}
	return &Syncer{
		store:         store,
		sink:          sink,
		titles:        opts.Titles,
		matcher:       Matcher{Titles: opts.Titles},
		exclude:       opts.Exclude,
		fallbackStart: opts.FallbackStart,
		fallbackEnd:   opts.FallbackEnd,
		dryRun:        opts.DryRun,
	}
}

// Run processes the personal events strictly in feed order. A sink failure
// for one event never aborts the batch. The returned error joins any
// inconsistent-state conditions (task created, store write failed) that
// occurred during the pass; stats are valid either way.
func (s *Syncer) Run(ctx context.Context, personal, reference []model.Event) (RunStats, error) {
	var stats RunStats
	var inconsistent []error

	for _, ev := range personal {
		stats.Processed++

		if ev.Summary == "" || ev.Start.IsZero() {
			stats.Skipped++
			continue
		}
		if s.excluded(ev.Summary) {
			stats.Skipped++
			log.Debug().Str("summary", ev.Summary).Msg("event excluded by filter")
			continue
		}

		start, end := s.resolveTimes(ev, reference)
		title := AnnotateZoom(s.titles.CoreTitle(ev.Summary), ev)
		key := EventKey(ev)

		synced, err := s.store.HasBeenSynced(ctx, key)
		if err != nil {
			// Treating a read failure as "not synced" risks a duplicate
			// task, so the event is abandoned before the sink is called.
			stats.Failed++
			serr := &StoreError{Op: "has_been_synced", Key: key, Err: err}
			log.Error().Err(serr).Str("title", title).Msg("dedup check failed, event left for next run")
			continue
		}
		if synced {
			stats.AlreadySynced++
			log.Debug().Str("title", title).Time("due", start).Msg("already synced, skipping")
			continue
		}

		task := model.Task{
			Title:       title,
			Due:         start,
			Description: ev.Location + "\n" + ev.Description,
		}

		if s.dryRun {
			stats.Created++
			log.Info().Str("title", title).Time("due", start).Time("end", end).Msg("dry-run: would create task")
			continue
		}

		taskRef, err := s.sink.CreateTask(ctx, task)
		if err != nil {
			// No store update: the event stays eligible for the next run.
			stats.Failed++
			log.Error().Err(err).Str("title", title).Time("due", start).Msg("task creation failed")
			continue
		}

		if err := s.store.MarkSynced(ctx, key); err != nil {
			stats.Failed++
			serr := &StoreError{Op: "mark_synced", Key: key, Err: err}
			joined := errors.Join(ErrInconsistentState, serr)
			inconsistent = append(inconsistent, joined)
			log.Error().Err(joined).Str("title", title).Str("task_ref", taskRef).
				Msg("task exists but is not recorded as synced; next run may duplicate it")
			continue
		}

		stats.Created++
		log.Info().Str("title", title).Time("due", start).Str("task_ref", taskRef).Msg("task created")
	}

	log.Info().
		Int("processed", stats.Processed).
		Int("created", stats.Created).
		Int("already_synced", stats.AlreadySynced).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("sync pass completed")

	return stats, errors.Join(inconsistent...)
}

// resolveTimes turns an event's start into a concrete instant. Timed events
// pass through (end defaulting to start+1h); date-only events are resolved
// against the reference feed, falling back to the configured evening window
// on the same calendar date.
func (s *Syncer) resolveTimes(ev model.Event, reference []model.Event) (time.Time, time.Time) {
	if !ev.DateOnly {
		end := ev.End
		if !ev.HasEnd() {
			end = ev.Start.Add(time.Hour)
		}
		return ev.Start, end
	}

	if start, end, ok := s.matcher.ResolveTimes(ev, reference); ok {
		return start, end
	}

	date := ev.Date()
	start := date.Add(time.Duration(s.fallbackStart.Hour)*time.Hour + time.Duration(s.fallbackStart.Minute)*time.Minute)
	end := date.Add(time.Duration(s.fallbackEnd.Hour)*time.Hour + time.Duration(s.fallbackEnd.Minute)*time.Minute)
	return start, end
}

func (s *Syncer) excluded(summary string) bool {
	for _, pat := range s.exclude {
		if pat != "" && strings.Contains(summary, pat) {
			return true
		}
	}
	return false
}
