package logstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/s2"
	"github.com/phuslu/log"

	"logstore/internal/platform/logging"
)

const snapshotMagic uint32 = 0x4C534958 // "LSIX"

// snapshot header: magic(4) | log size(8) | log mtime(8) | entry count(4)
const snapshotHeaderSize = 24

var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

// SnapshotPath is where the index snapshot for a log file lives.
func SnapshotPath(logPath string) string {
	return logPath + ".idx"
}

// SnapshotLoader seeds the index from a snapshot written by a clean Close.
// The snapshot is only trusted when the log size and modification time still
// match the ones it was taken at; otherwise the log is replayed in full.
type SnapshotLoader struct {
	Path   string
	Logger *log.Logger
}

func (l SnapshotLoader) Load(r io.ReaderAt, info os.FileInfo, idx *Index) error {
	logger := logging.OrNop(l.Logger)
	size, mtime, err := readSnapshot(l.Path, idx)
	switch {
	case err == nil && size == info.Size() && mtime == info.ModTime().UnixNano():
		logger.Debug().Str("snapshot", l.Path).Int("keys", idx.Len()).Msg("index loaded from snapshot")
		return nil
	case errors.Is(err, os.ErrNotExist):
		logger.Debug().Str("snapshot", l.Path).Msg("no index snapshot, replaying log")
	case err != nil:
		logger.Warn().Err(err).Str("snapshot", l.Path).Msg("ignoring index snapshot")
	default:
		logger.Info().Str("snapshot", l.Path).Int64("snapshot_size", size).Int64("log_size", info.Size()).
			Msg("index snapshot is stale, replaying log")
	}
	idx.reset()
	return ReplayLoader{}.Load(r, info, idx)
}

// WriteSnapshot persists idx together with the log state it describes. The
// file is replaced atomically.
func WriteSnapshot(path string, idx *Index, info os.FileInfo) error {
	raw := make([]byte, snapshotHeaderSize, snapshotHeaderSize+idx.Len()*32)
	binary.LittleEndian.PutUint32(raw[0:], snapshotMagic)
	binary.LittleEndian.PutUint64(raw[4:], uint64(info.Size()))
	binary.LittleEndian.PutUint64(raw[12:], uint64(info.ModTime().UnixNano()))
	binary.LittleEndian.PutUint32(raw[20:], uint32(idx.Len()))
	idx.Range(func(key string, offset int64) bool {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(len(key)))
		raw = append(raw, key...)
		raw = binary.LittleEndian.AppendUint64(raw, uint64(offset))
		return true
	})

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(s2.Encode(nil, raw)); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// RemoveSnapshot deletes a snapshot. A missing file is not an error.
func RemoveSnapshot(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func readSnapshot(path string, idx *Index) (size int64, mtime int64, err error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	raw, err := s2.Decode(nil, compressed)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if len(raw) < snapshotHeaderSize || binary.LittleEndian.Uint32(raw[0:]) != snapshotMagic {
		return 0, 0, fmt.Errorf("%w: bad header", ErrCorruptSnapshot)
	}
	size = int64(binary.LittleEndian.Uint64(raw[4:]))
	mtime = int64(binary.LittleEndian.Uint64(raw[12:]))
	count := binary.LittleEndian.Uint32(raw[20:])

	rest := raw[snapshotHeaderSize:]
	for n := uint32(0); n < count; n++ {
		if len(rest) < 4 {
			return 0, 0, fmt.Errorf("%w: truncated entry %d", ErrCorruptSnapshot, n)
		}
		keyLen := int(binary.LittleEndian.Uint32(rest))
		rest = rest[4:]
		if len(rest) < keyLen+8 {
			return 0, 0, fmt.Errorf("%w: truncated entry %d", ErrCorruptSnapshot, n)
		}
		key := string(rest[:keyLen])
		offset := int64(binary.LittleEndian.Uint64(rest[keyLen:]))
		rest = rest[keyLen+8:]
		if offset < 0 || offset >= size {
			return 0, 0, fmt.Errorf("%w: offset %d out of range", ErrCorruptSnapshot, offset)
		}
		idx.Set(key, offset)
	}
	if len(rest) != 0 {
		return 0, 0, fmt.Errorf("%w: %d trailing bytes", ErrCorruptSnapshot, len(rest))
	}
	return size, mtime, nil
}
