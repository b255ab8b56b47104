// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. It is the default for a
// single-node deployment: one file, no server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tiai1/tiai-solutions/internal/storage"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a file path or "file:" URI, e.g. "leads.db" or
	// "file:leads.db?_pragma=busy_timeout(5000)".
	DSN string
	// Table defaults to storage.DefaultTable.
	Table string
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// New wraps an open handle. It does not create the table; see EnsureSchema.
func New(db *sql.DB, cfg Config) *Repository {
	return &Repository{
		db:    db,
		table: storage.Config{Table: cfg.Table}.TableName(),
		now:   time.Now,
	}
}

// NewRepository opens the database, checks it with a ping and creates the
// records table if needed. The returned func closes the handle.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	r := New(db, cfg)
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return r, func() { db.Close() }, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EnsureSchema creates the records table and its kind index.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	t := quoteIdent(r.table)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (kind, created_at)`, quoteIdent(r.table+"_kind_idx"), t),
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, kind string, payload json.RawMessage) (storage.Record, error) {
	rec := storage.NewRecord(kind, payload, r.now())
	q := fmt.Sprintf(`INSERT INTO %s (id, kind, payload, created_at) VALUES (?, ?, ?, ?)`, quoteIdent(r.table))
	if _, err := r.db.ExecContext(ctx, q, rec.ID, rec.Kind, string(rec.Payload), rec.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return storage.Record{}, fmt.Errorf("sqlite: insert: %w", err)
	}
	return rec, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanRecord(s scanner) (storage.Record, error) {
	var (
		rec     storage.Record
		payload string
		created string
	)
	if err := s.Scan(&rec.ID, &rec.Kind, &payload, &created); err != nil {
		return storage.Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return storage.Record{}, fmt.Errorf("sqlite: created_at %q: %w", created, err)
	}
	rec.Payload = json.RawMessage(payload)
	rec.CreatedAt = t.UTC()
	return rec, nil
}

func (r *Repository) Get(ctx context.Context, id string) (storage.Record, error) {
	q := fmt.Sprintf(`SELECT id, kind, payload, created_at FROM %s WHERE id = ?`, quoteIdent(r.table))
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("sqlite: get: %w", err)
	}
	return rec, nil
}

func (r *Repository) List(ctx context.Context, kind string) ([]storage.Record, error) {
	q := fmt.Sprintf(`SELECT id, kind, payload, created_at FROM %s WHERE (? = '' OR kind = ?) ORDER BY created_at, rowid`, quoteIdent(r.table))
	rows, err := r.db.QueryContext(ctx, q, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	return out, nil
}
