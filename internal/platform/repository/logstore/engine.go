package logstore

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/phuslu/log"

	"logstore/internal/domain"
	"logstore/internal/platform/logging"
)

var ErrClosed = errors.New("engine is closed")

// Options tune how an Engine is opened. The zero value replays the log on
// open and logs nothing.
type Options struct {
	Logger *log.Logger
	// Loader overrides how the index is rebuilt. Ignored when Snapshot is set.
	Loader IndexLoader
	// Snapshot loads the index from SnapshotPath(path) when it is current and
	// writes a fresh snapshot on Close.
	Snapshot bool
}

// Engine is an append-only log file plus an in-memory index of the latest
// offset of every live key.
//
// An Engine is not safe for concurrent use. At most one Engine may have a
// given log file open; callers sharing one must serialize access themselves.
type Engine struct {
	fd     *os.File
	path   string
	index  *Index
	logger *log.Logger

	snapshot bool
	// dirty is set once the log has been mutated since open.
	dirty bool
}

// Open opens an existing log file and rebuilds the index from it.
func Open(path string) (*Engine, error) {
	return OpenWithOptions(path, Options{})
}

func OpenWithOptions(path string, opts Options) (*Engine, error) {
	fd, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	e := &Engine{
		fd:       fd,
		path:     path,
		index:    NewIndex(),
		logger:   logging.OrNop(opts.Logger),
		snapshot: opts.Snapshot,
	}

	loader := opts.Loader
	if opts.Snapshot {
		loader = SnapshotLoader{Path: SnapshotPath(path), Logger: e.logger}
	}
	if loader == nil {
		loader = ReplayLoader{}
	}

	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("stat log %s: %w", path, err)
	}
	if err := loader.Load(fd, info, e.index); err != nil {
		fd.Close()
		return nil, fmt.Errorf("load index from %s: %w", path, err)
	}

	e.logger.Info().Str("path", path).Int64("size", info.Size()).Int("keys", e.index.Len()).Msg("log opened")
	return e, nil
}

func (e *Engine) Path() string {
	return e.path
}

// Len is the number of live keys.
func (e *Engine) Len() int {
	return e.index.Len()
}

func (e *Engine) Get(key string) (string, error) {
	if e.fd == nil {
		return "", ErrClosed
	}
	offset, ok := e.index.Get(key)
	if !ok {
		return "", domain.ErrNotFound
	}

	header, err := e.readHeader(offset)
	if err != nil {
		return "", err
	}
	value := make([]byte, header.ValueSize)
	if err := readFull(e.fd, value, offset+HeaderSize+int64(header.KeySize)); err != nil {
		return "", fmt.Errorf("read value at offset %d: %w", offset, err)
	}
	if !utf8.Valid(value) {
		return "", fmt.Errorf("value for %q: %w", key, domain.ErrInvalidData)
	}
	return string(value), nil
}

// Put appends a new record for key. Earlier records stay in the file but are
// no longer reachable through the index. key and value must be valid UTF-8.
func (e *Engine) Put(key, value string) error {
	if e.fd == nil {
		return ErrClosed
	}
	// replay decodes every record, so one bad record would fail every Open.
	if !utf8.ValidString(key) || !utf8.ValidString(value) {
		return domain.ErrInvalidData
	}
	if err := e.touch(); err != nil {
		return err
	}

	info, err := e.fd.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	offset := info.Size()
	if _, err := e.fd.WriteAt(EncodeRecord(NewRecord(key, value)), offset); err != nil {
		return fmt.Errorf("append record at offset %d: %w", offset, err)
	}

	e.index.Set(key, offset)
	return nil
}

// Delete flips the deleted flag in the header of key's current record and
// drops key from the index. Payload bytes are left in place.
func (e *Engine) Delete(key string) error {
	if e.fd == nil {
		return ErrClosed
	}
	offset, ok := e.index.Get(key)
	if !ok {
		return domain.ErrNotFound
	}
	if err := e.touch(); err != nil {
		return err
	}

	header, err := e.readHeader(offset)
	if err != nil {
		return err
	}
	header.IsDeleted = true
	buf := EncodeHeader(header)
	if _, err := e.fd.WriteAt(buf[:], offset); err != nil {
		return fmt.Errorf("write header at offset %d: %w", offset, err)
	}

	e.index.Remove(key)
	return nil
}

// Close syncs the log to stable storage and releases the file. With
// snapshots enabled the index is saved first so the next open can skip the
// replay. Calling Close more than once is a no-op.
func (e *Engine) Close() error {
	if e.fd == nil {
		return nil
	}
	if err := e.fd.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	if e.snapshot {
		if err := e.saveSnapshot(); err != nil {
			// the log is already durable, a missing snapshot only costs a replay
			e.logger.Warn().Err(err).Str("path", e.path).Msg("write index snapshot failed")
		}
	}
	err := e.fd.Close()
	e.fd = nil
	if err != nil {
		return fmt.Errorf("close log: %w", err)
	}
	e.logger.Info().Str("path", e.path).Msg("log closed")
	return nil
}

func (e *Engine) saveSnapshot() error {
	info, err := e.fd.Stat()
	if err != nil {
		return err
	}
	return WriteSnapshot(SnapshotPath(e.path), e.index, info)
}

// touch invalidates the on-disk snapshot before the first mutation so a crash
// never leaves a snapshot describing an older log.
func (e *Engine) touch() error {
	if e.dirty {
		return nil
	}
	if e.snapshot {
		if err := RemoveSnapshot(SnapshotPath(e.path)); err != nil {
			return fmt.Errorf("invalidate index snapshot: %w", err)
		}
	}
	e.dirty = true
	return nil
}

func (e *Engine) readHeader(offset int64) (Header, error) {
	var buf [HeaderSize]byte
	if err := readFull(e.fd, buf[:], offset); err != nil {
		return Header{}, fmt.Errorf("read header at offset %d: %w", offset, err)
	}
	return DecodeHeader(buf[:])
}
