package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrUnavailable is returned (wrapped) when the backing service cannot be
// reached or answers with an error. Callers treat it as retryable.
var ErrUnavailable = errors.New("revocation store unavailable")

// Store is the set of refresh tokens the engine still honors.
//
// Implementations must give per-token sequential consistency: once Remove has
// returned for a token, a later Contains for the same token reports false.
type Store interface {
	// Add records token as active until expiresAt. A zero expiresAt means the
	// entry never expires on its own.
	Add(ctx context.Context, token string, expiresAt time.Time) error
	// Remove forgets token. Removing an absent token is not an error.
	Remove(ctx context.Context, token string) error
	// Contains reports whether token is present and not past its expiry.
	Contains(ctx context.Context, token string) (bool, error)
}

// Fingerprint returns the hex SHA-256 digest of token. It is the only form in
// which durable backends persist a refresh token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func ttlUntil(expiresAt, now time.Time) (time.Duration, bool) {
	if expiresAt.IsZero() {
		return 0, true
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return 0, false
	}
	return ttl, true
}
