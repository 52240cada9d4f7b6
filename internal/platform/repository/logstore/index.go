package logstore

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Index maps every live key to the offset of its most recent record.
type Index struct {
	offsets map[string]int64
}

func NewIndex() *Index {
	return &Index{offsets: make(map[string]int64)}
}

func (i *Index) Get(key string) (int64, bool) {
	offset, ok := i.offsets[key]
	return offset, ok
}

func (i *Index) Set(key string, offset int64) {
	i.offsets[key] = offset
}

func (i *Index) Remove(key string) {
	delete(i.offsets, key)
}

func (i *Index) Len() int {
	return len(i.offsets)
}

// Range calls fn for every entry until fn returns false. Order is unspecified.
func (i *Index) Range(fn func(key string, offset int64) bool) {
	for k, off := range i.offsets {
		if !fn(k, off) {
			return
		}
	}
}

func (i *Index) reset() {
	clear(i.offsets)
}

// apply folds one replayed record into the index. Later records win, and a
// record carrying the deleted flag drops the key.
func (i *Index) apply(h Header, key string, offset int64) {
	if h.IsDeleted {
		i.Remove(key)
		return
	}
	i.Set(key, offset)
}

// IndexLoader rebuilds an Index for a freshly opened log.
type IndexLoader interface {
	Load(r io.ReaderAt, info os.FileInfo, idx *Index) error
}

// ReplayLoader scans the whole log from offset zero.
type ReplayLoader struct{}

func (ReplayLoader) Load(r io.ReaderAt, _ os.FileInfo, idx *Index) error {
	_, err := replay(r, 0, idx)
	return err
}

// replay reads records starting at from until a header read returns no bytes.
// It returns the offset just past the last record.
func replay(r io.ReaderAt, from int64, idx *Index) (int64, error) {
	offset := from
	var headerBuf [HeaderSize]byte
	for {
		n, err := r.ReadAt(headerBuf[:], offset)
		if n == 0 && errors.Is(err, io.EOF) {
			return offset, nil
		}
		if n < HeaderSize {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return offset, fmt.Errorf("read header at offset %d: %w", offset, err)
		}

		header, err := DecodeHeader(headerBuf[:])
		if err != nil {
			return offset, err
		}
		buf := make([]byte, header.RecordSize())
		if err := readFull(r, buf, offset); err != nil {
			return offset, fmt.Errorf("read record at offset %d: %w", offset, err)
		}
		rec, err := DecodeRecord(buf)
		if err != nil {
			return offset, fmt.Errorf("decode record at offset %d: %w", offset, err)
		}

		idx.apply(rec.Header, rec.Key, offset)
		offset += rec.Size()
	}
}

// readFull fills buf from offset. A short read is an error; io.EOF alongside a
// complete buffer is not.
func readFull(r io.ReaderAt, buf []byte, offset int64) error {
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return err
}
