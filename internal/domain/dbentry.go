package domain

import "errors"

var (
	ErrNotFound    = errors.New("key not found")
	ErrInvalidData = errors.New("data is not valid utf-8")
)

type DbEntry struct {
	key       string
	value     string
	tombstone bool
}

func NewDbEntry(key, value string, tombstone bool) DbEntry {
	return DbEntry{
		key:       key,
		value:     value,
		tombstone: tombstone,
	}
}

func (entry *DbEntry) Copy() DbEntry {
	return DbEntry{
		key:       entry.key,
		value:     entry.value,
		tombstone: entry.tombstone,
	}
}

func (entry *DbEntry) Key() string {
	return entry.key
}

func (entry *DbEntry) Value() string {
	return entry.value
}

func (entry *DbEntry) Tombstone() bool {
	return entry.tombstone
}

func (entry *DbEntry) Delete() {
	entry.tombstone = true
}

// DbEntryRepository is the storage port used by the application services.
// Implementations must be safe for concurrent use.
type DbEntryRepository interface {
	Save(entry DbEntry) (DbEntry, error)
	Get(key string) (DbEntry, error)
	Delete(key string) (DbEntry, error)
	Close() error
}
