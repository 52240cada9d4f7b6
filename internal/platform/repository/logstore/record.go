package logstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"logstore/internal/domain"
)

// HeaderSize is the serialized width of a Header:
//
//	| checksum(4) | timestamp(4) | is_deleted(1) | key_size(4) | value_size(4) |
//
// All integers are little-endian and there is no padding.
const HeaderSize = 17

const (
	checksumOffset  = 0
	timestampOffset = 4
	deletedOffset   = 8
	keySizeOffset   = 9
	valueSizeOffset = 13
)

var (
	ErrShortHeader = errors.New("header shorter than 17 bytes")
	ErrRecordSize  = errors.New("record length does not match header sizes")
)

// Header is the fixed-width prefix of every record in the log.
// Checksum and Timestamp are reserved and always written as zero.
type Header struct {
	Checksum  uint32
	Timestamp uint32
	IsDeleted bool
	KeySize   uint32
	ValueSize uint32
}

type Record struct {
	Header Header
	Key    string
	Value  string
}

func NewRecord(key, value string) Record {
	return Record{
		Header: Header{
			KeySize:   uint32(len(key)),
			ValueSize: uint32(len(value)),
		},
		Key:   key,
		Value: value,
	}
}

// RecordSize is the framed length of a record with the given header.
func (h Header) RecordSize() int64 {
	return HeaderSize + int64(h.KeySize) + int64(h.ValueSize)
}

func (r Record) Size() int64 {
	return r.Header.RecordSize()
}

func EncodeHeader(h Header) [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[checksumOffset:], h.Checksum)
	binary.LittleEndian.PutUint32(buf[timestampOffset:], h.Timestamp)
	if h.IsDeleted {
		buf[deletedOffset] = 1
	}
	binary.LittleEndian.PutUint32(buf[keySizeOffset:], h.KeySize)
	binary.LittleEndian.PutUint32(buf[valueSizeOffset:], h.ValueSize)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d", ErrShortHeader, len(b))
	}
	return Header{
		Checksum:  binary.LittleEndian.Uint32(b[checksumOffset:]),
		Timestamp: binary.LittleEndian.Uint32(b[timestampOffset:]),
		IsDeleted: b[deletedOffset] != 0,
		KeySize:   binary.LittleEndian.Uint32(b[keySizeOffset:]),
		ValueSize: binary.LittleEndian.Uint32(b[valueSizeOffset:]),
	}, nil
}

func EncodeRecord(r Record) []byte {
	buf := make([]byte, 0, r.Size())
	header := EncodeHeader(r.Header)
	buf = append(buf, header[:]...)
	buf = append(buf, r.Key...)
	buf = append(buf, r.Value...)
	return buf
}

func DecodeRecord(b []byte) (Record, error) {
	header, err := DecodeHeader(b)
	if err != nil {
		return Record{}, err
	}
	if int64(len(b)) != header.RecordSize() {
		return Record{}, fmt.Errorf("%w: have %d bytes, header declares %d",
			ErrRecordSize, len(b), header.RecordSize())
	}

	keyEnd := HeaderSize + int(header.KeySize)
	keyBytes := b[HeaderSize:keyEnd]
	valueBytes := b[keyEnd:]
	if !utf8.Valid(keyBytes) {
		return Record{}, fmt.Errorf("decode key: %w", domain.ErrInvalidData)
	}
	if !utf8.Valid(valueBytes) {
		return Record{}, fmt.Errorf("decode value: %w", domain.ErrInvalidData)
	}

	return Record{
		Header: header,
		Key:    string(keyBytes),
		Value:  string(valueBytes),
	}, nil
}
