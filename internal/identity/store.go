package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/courier/internal/core/db"
	"github.com/solatis/courier/internal/types"
)

// Store is the SQL-backed Map over the identifiers table.
// Every lookup is a point read; nothing is cached between calls.
type Store struct {
	queries *db.Queries
}

// NewStore wraps loaded named queries. The identifiers migration must have
// been applied.
func NewStore(queries *db.Queries) *Store {
	return &Store{queries: queries}
}

// ToStableKey implements Map.
func (s *Store) ToStableKey(ctx context.Context, id types.LocalID, kind types.Kind) (types.StableKey, error) {
	var key string
	err := s.queries.Get(ctx, "get-stable-key", &key, string(kind), int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s %d", types.ErrNotFound, kind, id)
	}
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	return types.StableKey(key), nil
}

// ToLocalID implements Map.
func (s *Store) ToLocalID(ctx context.Context, key types.StableKey, kind types.Kind) (types.LocalID, error) {
	var id int64
	err := s.queries.Get(ctx, "get-local-id", &id, string(kind), string(key))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s %q", types.ErrNotFound, kind, key)
	}
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return types.LocalID(id), nil
}

// Put records a mapping, replacing any row that held either side of it.
func (s *Store) Put(ctx context.Context, e Entry) error {
	return s.queries.InTx(ctx, func(tx *db.Queries) error {
		return put(ctx, tx, e)
	})
}

// Import records every entry in one transaction.
func (s *Store) Import(ctx context.Context, entries []Entry) error {
	return s.queries.InTx(ctx, func(tx *db.Queries) error {
		for _, e := range entries {
			if err := put(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func put(ctx context.Context, tx *db.Queries, e Entry) error {
	if e.Kind == "" || e.StableKey.IsZero() {
		return fmt.Errorf("identifier entry requires kind and stable key (local id %d)", e.LocalID)
	}
	if _, err := tx.Exec(ctx, "delete-identifier-by-local-id", string(e.Kind), int64(e.LocalID)); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if _, err := tx.Exec(ctx, "delete-identifier-by-stable-key", string(e.Kind), string(e.StableKey)); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if _, err := tx.Exec(ctx, "insert-identifier", string(e.Kind), int64(e.LocalID), string(e.StableKey), time.Now().UTC()); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

// Register returns the stable key of id, issuing a new UUIDv7 key on first
// sight.
func (s *Store) Register(ctx context.Context, kind types.Kind, id types.LocalID) (types.StableKey, error) {
	key, err := s.ToStableKey(ctx, id, kind)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", err
	}

	// Concurrent registrations of id race on the primary key; the first
	// insert wins and every caller reads its key back.
	if _, err := s.queries.Exec(ctx, "insert-identifier-if-absent",
		string(kind), int64(id), string(types.NewStableKey()), time.Now().UTC()); err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}
	return s.ToStableKey(ctx, id, kind)
}

// List returns all mappings of a kind ordered by local id.
func (s *Store) List(ctx context.Context, kind types.Kind) ([]Entry, error) {
	var entries []Entry
	if err := s.queries.Select(ctx, "list-identifiers", &entries, string(kind)); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return entries, nil
}
