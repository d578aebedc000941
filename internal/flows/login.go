package flows

import (
	"context"
	"errors"
	"strings"
	"time"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureEmpty
	LoginFailureRateLimited
	LoginFailureCredentials
	LoginFailureRole
	LoginFailureUnavailable
	LoginFailureIssue
	LoginFailureStore
)

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	Identity Identity
	Access   IssuedToken
	Refresh  IssuedToken
}

// LoginSessionStore is the subset of the revocation store login writes to.
type LoginSessionStore interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
}

// LoginDeps captures login flow dependencies. The throttle fields are optional.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	CheckThrottle  func(ctx context.Context, identifier, ip string) error
	RecordFailure  func(ctx context.Context, identifier, ip string) error
	ResetThrottle  func(ctx context.Context, identifier string) error
	ThrottleTarget error

	VerifyCredentials func(ctx context.Context, identifier, secret string) (Identity, error)
	// Rejected reports whether a verifier error means bad credentials rather
	// than an unreachable directory.
	Rejected func(error) bool

	IssueAccess  func(Identity) (IssuedToken, error)
	IssueRefresh func(Identity) (IssuedToken, error)
	Sessions     LoginSessionStore

	Warn func(string, ...any)
}

// RunLogin verifies credentials, issues an access/refresh pair and registers
// the refresh token. Tokens are only returned once the store accepted them.
func RunLogin(ctx context.Context, identifier, secret string, deps LoginDeps) LoginResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}

	if strings.TrimSpace(identifier) == "" || secret == "" {
		return LoginResult{Failure: LoginFailureEmpty}
	}
	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckThrottle != nil {
		if err := deps.CheckThrottle(ctx, identifier, ip); err != nil {
			if deps.ThrottleTarget != nil && errors.Is(err, deps.ThrottleTarget) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err}
			}
			return LoginResult{Failure: LoginFailureUnavailable, Err: err}
		}
	}

	identity, err := deps.VerifyCredentials(ctx, identifier, secret)
	if err != nil {
		if deps.Rejected != nil && deps.Rejected(err) {
			if deps.RecordFailure != nil {
				if recErr := deps.RecordFailure(ctx, identifier, ip); recErr != nil &&
					(deps.ThrottleTarget == nil || !errors.Is(recErr, deps.ThrottleTarget)) {
					deps.Warn("tokengate: failed to record login failure", "error", recErr)
				}
			}
			return LoginResult{Failure: LoginFailureCredentials, Err: err}
		}
		return LoginResult{Failure: LoginFailureUnavailable, Err: err}
	}
	if !identity.Role.Valid() {
		return LoginResult{
			Failure:  LoginFailureRole,
			Err:      errors.New("directory returned unknown role"),
			Identity: identity,
		}
	}

	access, err := deps.IssueAccess(identity)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Identity: identity}
	}
	refresh, err := deps.IssueRefresh(identity)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Identity: identity}
	}

	if err := deps.Sessions.Add(ctx, refresh.Token, refresh.ExpiresAt); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, Identity: identity}
	}

	if deps.ResetThrottle != nil {
		if err := deps.ResetThrottle(ctx, identifier); err != nil {
			deps.Warn("tokengate: failed to reset login throttle", "error", err)
		}
	}

	return LoginResult{
		Identity: identity,
		Access:   access,
		Refresh:  refresh,
	}
}
