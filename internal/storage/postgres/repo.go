// Package postgres implements the record repository on Postgres using pgx v5.
// Payloads are stored as jsonb so they can be queried from SQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiai1/tiai-solutions/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // optionally schema-qualified, e.g. "public.records"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool  *pgxpool.Pool
	table string // quoted, fully qualified
	now   func() time.Time
}

// NewRepository constructs a Repository, creates the table if needed and
// returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	r := &Repository{
		pool:  pool,
		table: pgFQN(storage.Config{Table: cfg.Table}.TableName()),
		now:   time.Now,
	}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return r, func() { pool.Close() }, nil
}

// pgIdent quotes a single identifier.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes each dot-separated part of a possibly schema-qualified name.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// indexName derives "<table>_kind_idx" from the unqualified table name.
func indexName(fqn string) string {
	base := fqn[strings.LastIndex(fqn, ".")+1:]
	base = strings.ReplaceAll(strings.Trim(base, `"`), `""`, `"`)
	return pgIdent(base + "_kind_idx")
}

// EnsureSchema creates the records table and its kind index.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id text PRIMARY KEY,
	kind text NOT NULL,
	payload jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`, r.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (kind, created_at)`, indexName(r.table), r.table),
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, kind string, payload json.RawMessage) (storage.Record, error) {
	rec := storage.NewRecord(kind, payload, r.now())
	q := fmt.Sprintf(`INSERT INTO %s (id, kind, payload, created_at) VALUES ($1, $2, $3::jsonb, $4)`, r.table)
	if _, err := r.pool.Exec(ctx, q, rec.ID, rec.Kind, string(rec.Payload), rec.CreatedAt); err != nil {
		return storage.Record{}, fmt.Errorf("postgres: insert: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (storage.Record, error) {
	var (
		rec     storage.Record
		payload []byte
	)
	if err := row.Scan(&rec.ID, &rec.Kind, &payload, &rec.CreatedAt); err != nil {
		return storage.Record{}, err
	}
	rec.Payload = json.RawMessage(payload)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (r *Repository) Get(ctx context.Context, id string) (storage.Record, error) {
	q := fmt.Sprintf(`SELECT id, kind, payload, created_at FROM %s WHERE id = $1`, r.table)
	rec, err := scanRecord(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("postgres: get: %w", err)
	}
	return rec, nil
}

func (r *Repository) List(ctx context.Context, kind string) ([]storage.Record, error) {
	q := fmt.Sprintf(`SELECT id, kind, payload, created_at FROM %s WHERE ($1 = '' OR kind = $1) ORDER BY created_at, id`, r.table)
	rows, err := r.pool.Query(ctx, q, kind)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	var out []storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	return out, nil
}
