// Package store provides persistent dedup-store backends. Each backend
// records the identifiers of events that have already produced a task and
// guarantees MarkSynced behaves as an idempotent insert-if-absent.
package store

import (
	"context"
	"fmt"
)

// Store is a dedup store with a lifecycle. It satisfies the sync package's
// DedupStore interface and adds Close for process shutdown.
type Store interface {
	HasBeenSynced(ctx context.Context, id string) (bool, error)
	MarkSynced(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open constructs the configured backend. The deployment chooses file or
// SQLite; the sync core never knows which one it got.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return OpenFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
