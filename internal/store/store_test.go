package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both backends must agree on observable behavior; run the same contract
// against each.
func TestStoreContract(t *testing.T) {
	t.Parallel()

	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{
			name: "file",
			open: func(t *testing.T) Store {
				s, err := OpenFile(filepath.Join(t.TempDir(), "added_events.txt"))
				require.NoError(t, err)
				return s
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Store {
				s, err := OpenSQLite(filepath.Join(t.TempDir(), "todosync.db"))
				require.NoError(t, err)
				return s
			},
		},
	}

	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := be.open(t)
			defer s.Close()

			const id = "Laboratoriemedicin vår T3-2025-03-10"

			synced, err := s.HasBeenSynced(ctx, id)
			require.NoError(t, err)
			assert.False(t, synced)

			require.NoError(t, s.MarkSynced(ctx, id))

			synced, err = s.HasBeenSynced(ctx, id)
			require.NoError(t, err)
			assert.True(t, synced)

			// Marking again is a no-op, not an error.
			require.NoError(t, s.MarkSynced(ctx, id))

			synced, err = s.HasBeenSynced(ctx, "some-other-id")
			require.NoError(t, err)
			assert.False(t, synced)
		})
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "added_events.txt")

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.MarkSynced(ctx, "event-a"))
	require.NoError(t, s.MarkSynced(ctx, "event-b"))
	require.NoError(t, s.Close())

	s, err = OpenFile(path)
	require.NoError(t, err)
	defer s.Close()

	for _, id := range []string{"event-a", "event-b"} {
		synced, err := s.HasBeenSynced(ctx, id)
		require.NoError(t, err)
		assert.True(t, synced, id)
	}

	synced, err := s.HasBeenSynced(ctx, "event-c")
	require.NoError(t, err)
	assert.False(t, synced)
}

func TestFileStore_FlattensLineBreaksConsistently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "added_events.txt")

	s, err := OpenFile(path)
	require.NoError(t, err)

	const id = "summary with\nembedded newline-2025-03-10"
	require.NoError(t, s.MarkSynced(ctx, id))

	synced, err := s.HasBeenSynced(ctx, id)
	require.NoError(t, err)
	assert.True(t, synced)
	require.NoError(t, s.Close())

	// Survives reopen: the flattened form on disk still matches lookups.
	s, err = OpenFile(path)
	require.NoError(t, err)
	defer s.Close()

	synced, err = s.HasBeenSynced(ctx, id)
	require.NoError(t, err)
	assert.True(t, synced)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todosync.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.MarkSynced(ctx, "event-a"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	synced, err := s.HasBeenSynced(ctx, "event-a")
	require.NoError(t, err)
	assert.True(t, synced)
}

func TestOpen_SelectsBackend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := Open(BackendFile, filepath.Join(dir, "ids.txt"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	s.Close()

	s, err = Open(BackendSQLite, filepath.Join(dir, "ids.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	_, err = Open("redis", "unused")
	assert.Error(t, err)
}
