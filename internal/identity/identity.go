// Package identity translates between environment-local identifiers and
// environment-independent stable keys.
//
// Two implementations share the Map contract: Memory for tests and one-shot
// CLI runs, Store for the SQL-backed mapping table. Neither caches results
// on behalf of the caller.
package identity

import (
	"context"

	"github.com/solatis/courier/internal/types"
)

// Map is a bidirectional identifier map. Lookups that have no entry return
// an error wrapping types.ErrNotFound.
type Map interface {
	ToStableKey(ctx context.Context, id types.LocalID, kind types.Kind) (types.StableKey, error)
	ToLocalID(ctx context.Context, key types.StableKey, kind types.Kind) (types.LocalID, error)
}

// Entry is a single (kind, local id, stable key) mapping.
type Entry struct {
	Kind      types.Kind      `yaml:"kind" db:"kind"`
	LocalID   types.LocalID   `yaml:"localId" db:"local_id"`
	StableKey types.StableKey `yaml:"stableKey" db:"stable_key"`
}
