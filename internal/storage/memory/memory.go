// Package memory is the in-process storage backend. Records live only as long
// as the process; it is the default for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tiai1/tiai-solutions/internal/storage"
)

// Repository keeps records in insertion order.
type Repository struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []storage.Record
	now   func() time.Time
}

var _ storage.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{byID: map[string]int{}, now: time.Now}
}

func init() {
	storage.Register("memory", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(), nil
	})
}

func (r *Repository) Create(ctx context.Context, kind string, payload json.RawMessage) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	rec := storage.NewRecord(kind, payload, r.now())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.ID] = len(r.items)
	r.items = append(r.items, rec)
	return rec, nil
}

func (r *Repository) Get(ctx context.Context, id string) (storage.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	return r.items[i], nil
}

func (r *Repository) List(ctx context.Context, kind string) ([]storage.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []storage.Record
	for _, rec := range r.items {
		if kind == "" || rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *Repository) Close() {}
