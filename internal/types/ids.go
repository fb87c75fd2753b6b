package types

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LocalID is an environment-specific identifier, only meaningful inside the
// store that issued it.
type LocalID int64

// String formats the id in base 10.
func (id LocalID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseLocalID parses a base-10 id. Surrounding whitespace is ignored.
func ParseLocalID(s string) (LocalID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return LocalID(n), nil
}

// StableKey is an environment-independent identifier, portable between the
// source and destination environments.
type StableKey string

// IsZero reports whether the key is blank.
func (k StableKey) IsZero() bool {
	return strings.TrimSpace(string(k)) == ""
}

// NewStableKey generates a UUIDv7 stable key.
// Time-ordered keys keep sequential registrations clustered in the index.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewStableKey() StableKey {
	return StableKey(uuid.Must(uuid.NewV7()).String())
}

// NewItemID generates an identifier for items submitted without one.
func NewItemID() string {
	return uuid.Must(uuid.NewV7()).String()
}
