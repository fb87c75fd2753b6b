// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// keyNameKey is the context key for the authenticated key's name.
const keyNameKey = contextKey("api_key_name")

// Queries defines the named-query operations authentication needs.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	Exec(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate validates an API key and returns the key's name on success.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	computedHash := ComputeHMAC(secret, apiKey)

	// key_hash is unique, so at most one row matches.
	var result struct {
		APIKeyID   string       `db:"api_key_id"`
		Name       string       `db:"name"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get(ctx, "get-api-key-by-hash", &result, computedHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}

	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// Throttled to one write per minute per key.
	if shouldUpdateLastUsed(result.LastUsedAt, a.now()) {
		_, _ = a.queries.Exec(ctx, "update-last-used", a.now(), result.APIKeyID)
	}

	return result.Name, nil
}

// Issue creates and stores a new API key under the lowest configured
// secret id. The plain key is returned once and never stored.
func (a *Authenticator) Issue(ctx context.Context, name string) (apiKeyID, apiKey string, err error) {
	if len(a.secrets) == 0 {
		return "", "", ErrUnknownKey
	}
	ids := make([]string, 0, len(a.secrets))
	for id := range a.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	secretID := ids[0]

	apiKey, err = GenerateAPIKey(secretID)
	if err != nil {
		return "", "", err
	}
	apiKeyID = uuid.Must(uuid.NewV7()).String()
	hash := ComputeHMAC(a.secrets[secretID], apiKey)

	if _, err := a.queries.Exec(ctx, "insert-api-key", apiKeyID, name, hash, a.now().Format(time.RFC3339Nano)); err != nil {
		return "", "", fmt.Errorf("database error: %w", err)
	}
	return apiKeyID, apiKey, nil
}

// Revoke marks a key revoked; later Authenticate calls fail with ErrKeyRevoked.
func (a *Authenticator) Revoke(ctx context.Context, apiKeyID string) error {
	res, err := a.queries.Exec(ctx, "revoke-api-key", a.now(), apiKeyID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	return now.Sub(lastUsed.Time) > time.Minute
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Methods listed in public skip authentication.
func (a *Authenticator) UnaryInterceptor(public ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]bool, len(public))
	for _, m := range public {
		skip[m] = true
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if skip[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		name, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			return nil, status.Error(StatusCode(err), err.Error())
		}

		ctx = context.WithValue(ctx, keyNameKey, name)
		return handler(ctx, req)
	}
}

// StatusCode maps an authentication error to its gRPC code.
func StatusCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrMissingKey), errors.Is(err, ErrInvalidKeyFormat),
		errors.Is(err, ErrUnknownKey), errors.Is(err, ErrInvalidKey):
		return codes.Unauthenticated
	default:
		return codes.Unavailable
	}
}

// KeyNameFromContext returns the authenticated key's name, or "".
func KeyNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(keyNameKey).(string); ok {
		return name
	}
	return ""
}
