// Package ledger persists which table contents have been committed to the
// warehouse, keyed by table and content fingerprint. A repeated load of the
// same extract can consult it to avoid appending the same rows twice.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Entry is the value stored per committed table load.
type Entry struct {
	Table       string    `json:"table"`
	Fingerprint string    `json:"fingerprint"`
	Rows        int64     `json:"rows"`
	CommittedAt time.Time `json:"committed_at"`
}

// Store is a Pebble-backed ledger.
type Store struct {
	db  *pebble.DB
	now func() time.Time
}

// Open opens (or creates) a ledger in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("ledger: pebble open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenInMemory opens a ledger that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("ledger: pebble open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func key(table, fingerprint string) []byte {
	return []byte("load/" + table + "/" + fingerprint)
}

// Seen reports whether table was already committed with this fingerprint.
func (s *Store) Seen(_ context.Context, table, fingerprint string) (bool, error) {
	_, ok, err := s.Get(table, fingerprint)
	return ok, err
}

// Get returns the entry for table and fingerprint, if any.
func (s *Store) Get(table, fingerprint string) (Entry, bool, error) {
	v, closer, err := s.db.Get(key(table, fingerprint))
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("ledger: get: %w", err)
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(v, &e); err != nil {
		return Entry{}, false, fmt.Errorf("ledger: decode %s: %w", key(table, fingerprint), err)
	}
	return e, true, nil
}

// Record stores a committed load. The write is synced before returning.
func (s *Store) Record(_ context.Context, table, fingerprint string, rows int64) error {
	b, err := json.Marshal(Entry{
		Table:       table,
		Fingerprint: fingerprint,
		Rows:        rows,
		CommittedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}
	if err := s.db.Set(key(table, fingerprint), b, pebble.Sync); err != nil {
		return fmt.Errorf("ledger: set: %w", err)
	}
	return nil
}
