package sync

import (
	"errors"
	"fmt"
)

// ErrInconsistentState marks the case where a task was created externally
// but recording it in the dedup store failed afterwards. The task exists in
// Todoist yet is not remembered as synced, so the next run may duplicate
// it. Operators must see this; it is never swallowed.
var ErrInconsistentState = errors.New("task created but not recorded in dedup store")

// FetchError wraps a feed retrieval/parse failure. It is fatal for the
// whole reconciliation pass: no events are processed and the store is not
// touched.
type FetchError struct {
	Feed string // "personal" or "reference"
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s feed: %v", e.Feed, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StoreError wraps a dedup store read or write failure for a single event.
// A read failure aborts that event before the sink is called; a write
// failure after a successful creation is additionally joined with
// ErrInconsistentState.
type StoreError struct {
	Op  string // "has_been_synced" or "mark_synced"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("dedup store %s (%s): %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
