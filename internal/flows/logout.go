package flows

import (
	"context"
	"strings"
)

// LogoutFailureKind classifies logout flow failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureEmpty
	LogoutFailureUnavailable
)

// LogoutResult carries failure metadata for a logout.
type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
}

// LogoutSessionStore is the subset of the revocation store logout mutates.
type LogoutSessionStore interface {
	Remove(ctx context.Context, token string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Sessions LogoutSessionStore
}

// RunLogout removes the refresh session unconditionally. It needs no valid
// signature and is idempotent: logging out an unknown token succeeds.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if strings.TrimSpace(refreshToken) == "" {
		return LogoutResult{Failure: LogoutFailureEmpty}
	}
	if err := deps.Sessions.Remove(ctx, refreshToken); err != nil {
		return LogoutResult{Failure: LogoutFailureUnavailable, Err: err}
	}
	return LogoutResult{}
}
