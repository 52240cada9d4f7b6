package logstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logstore/internal/domain"
)

func openWithSnapshot(t *testing.T, path string) *Engine {
	e, err := OpenWithOptions(path, Options{Snapshot: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		e.Close()
	})
	return e
}

func TestSnapshot_WrittenOnClose(t *testing.T) {
	path := createTempLog(t)
	e := openWithSnapshot(t, path)
	require.NoError(t, e.Put("a", "1"))
	require.NoError(t, e.Put("b", "2"))
	require.NoError(t, e.Close())

	_, err := os.Stat(SnapshotPath(path))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	idx := NewIndex()
	size, mtime, err := readSnapshot(SnapshotPath(path), idx)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), size)
	assert.Equal(t, info.ModTime().UnixNano(), mtime)
	assert.Equal(t, 2, idx.Len())
}

func TestSnapshot_ReopenMatchesReplay(t *testing.T) {
	path := createTempLog(t)
	e := openWithSnapshot(t, path)
	require.NoError(t, e.Put("k", "v1"))
	require.NoError(t, e.Put("gone", "x"))
	require.NoError(t, e.Put("k", "v2"))
	require.NoError(t, e.Delete("gone"))
	require.NoError(t, e.Close())

	fromSnapshot := openWithSnapshot(t, path)
	got, err := fromSnapshot.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
	_, err = fromSnapshot.Get("gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, fromSnapshot.Close())

	replayed, err := Open(path)
	require.NoError(t, err)
	defer replayed.Close()
	assert.Equal(t, replayed.index.offsets, fromSnapshot.index.offsets)
}

func TestSnapshot_InvalidatedByMutation(t *testing.T) {
	path := createTempLog(t)
	e := openWithSnapshot(t, path)
	require.NoError(t, e.Put("a", "1"))
	require.NoError(t, e.Close())

	e = openWithSnapshot(t, path)
	_, err := os.Stat(SnapshotPath(path))
	require.NoError(t, err, "open alone must keep the snapshot")

	require.NoError(t, e.Put("b", "2"))
	_, err = os.Stat(SnapshotPath(path))
	assert.True(t, os.IsNotExist(err), "first write must remove the snapshot")
}

func TestSnapshotLoader_StaleFallsBackToReplay(t *testing.T) {
	path := createTempLog(t)
	e := openWithSnapshot(t, path)
	require.NoError(t, e.Put("a", "1"))
	require.NoError(t, e.Close())

	// a writer without snapshots appends behind the snapshot's back
	plain, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, plain.Put("b", "2"))
	require.NoError(t, plain.Close())

	e = openWithSnapshot(t, path)
	got, err := e.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	assert.Equal(t, 2, e.Len())
}

func TestSnapshotLoader_CorruptFallsBackToReplay(t *testing.T) {
	path := createTempLog(t)
	require.NoError(t, os.WriteFile(path, EncodeRecord(NewRecord("a", "1")), 0644))
	require.NoError(t, os.WriteFile(SnapshotPath(path), []byte("not a snapshot"), 0644))

	e := openWithSnapshot(t, path)

	got, err := e.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestReadSnapshot_Corrupt(t *testing.T) {
	path := createTempLog(t)
	e := openWithSnapshot(t, path)
	require.NoError(t, e.Put("a", "1"))
	require.NoError(t, e.Close())

	raw, err := os.ReadFile(SnapshotPath(path))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(SnapshotPath(path), raw[:len(raw)/2], 0644))

	_, _, err = readSnapshot(SnapshotPath(path), NewIndex())
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}
