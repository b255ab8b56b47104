package session

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketSession = []byte("session")

// BoltStore keeps the snapshot in a local bbolt file. It backs the CLI's
// session commands; the file never leaves the machine.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating when needed) the session file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: init bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Save writes every part of snap in one transaction.
func (s *BoltStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	parts, err := encode(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		for k, v := range parts {
			if err := b.Put([]byte(k), v); err != nil {
				return fmt.Errorf("session: put %s: %w", k, err)
			}
		}
		return nil
	})
}

// Load reads the saved snapshot. ok is false when nothing was saved.
func (s *BoltStore) Load(ctx context.Context) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}
	var (
		snap Snapshot
		ok   bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		var err error
		// Values returned by Get are only valid inside the transaction;
		// decode copies them out via json.Unmarshal.
		snap, ok, err = decode(func(k string) []byte { return b.Get([]byte(k)) })
		return err
	})
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, ok, nil
}

// Clear deletes the saved snapshot.
func (s *BoltStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		for _, k := range []string{KeyData, KeyColumns, KeyCharts} {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the database file lock.
func (s *BoltStore) Close() error { return s.db.Close() }
