package repository

import (
	"sync"

	"logstore/internal/domain"
	"logstore/internal/platform/repository/logstore"
)

// LogRepository serializes every call into a single Engine, which must not
// be used concurrently.
type LogRepository struct {
	mu     sync.Mutex
	engine *logstore.Engine
}

func NewLogRepository(engine *logstore.Engine) *LogRepository {
	return &LogRepository{
		engine: engine,
	}
}

func (r *LogRepository) Save(e domain.DbEntry) (domain.DbEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.engine.Put(e.Key(), e.Value()); err != nil {
		return domain.DbEntry{}, err
	}
	return e, nil
}

func (r *LogRepository) Get(key string) (domain.DbEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, err := r.engine.Get(key)
	if err != nil {
		return domain.DbEntry{}, err
	}
	return domain.NewDbEntry(key, value, false), nil
}

func (r *LogRepository) Delete(key string) (domain.DbEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.engine.Delete(key); err != nil {
		return domain.DbEntry{}, err
	}
	return domain.NewDbEntry(key, "", true), nil
}

func (r *LogRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Close()
}
