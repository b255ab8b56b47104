// Package storage defines the record repository behind the lead-capture API
// and a factory registry so callers can open a backend by kind alone.
//
// Backends register themselves from init; import storage/all (or a single
// backend) for side effects to make them available to New.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record kinds accepted by the site.
const (
	KindContact  = "contact"
	KindLead     = "lead"
	KindDownload = "download"
	KindCall     = "call"
)

// DefaultTable is the table SQL backends use when Config.Table is empty.
const DefaultTable = "records"

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("storage: record not found")

// Record is one stored submission. Payload is the validated request body.
type Record struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRecord stamps a fresh id and creation time.
func NewRecord(kind string, payload json.RawMessage, now time.Time) Record {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: now.UTC(),
	}
}

// Repository is implemented by every backend.
type Repository interface {
	// Create stores payload under a new id and returns the stored record.
	Create(ctx context.Context, kind string, payload json.RawMessage) (Record, error)
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (Record, error)
	// List returns records of kind, oldest first. An empty kind lists all.
	List(ctx context.Context, kind string) ([]Record, error)
	Close()
}

// Config selects and parameterizes a backend.
type Config struct {
	Kind  string // "memory", "sqlite", "postgres"
	DSN   string
	Table string
}

// TableName returns Table or DefaultTable.
func (c Config) TableName() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
