package flows

import (
	"context"
	"errors"
	"strings"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureEmpty
	RefreshFailureInvalid
	RefreshFailureExpired
	RefreshFailureNotActive
	RefreshFailureSubjectGone
	RefreshFailureRole
	RefreshFailureUnavailable
	RefreshFailureIssue
)

// RefreshResult carries either the new access token or failure metadata.
type RefreshResult struct {
	Failure   RefreshFailureKind
	Err       error
	SubjectID string
	Identity  Identity
	Access    IssuedToken
}

// RefreshSessionStore is the subset of the revocation store refresh consults.
type RefreshSessionStore interface {
	Contains(ctx context.Context, token string) (bool, error)
	Remove(ctx context.Context, token string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	// VerifyRefresh checks the refresh token's signature and expiry and
	// returns its subject.
	VerifyRefresh func(token string) (string, error)
	Expired       func(error) bool

	Sessions RefreshSessionStore

	LookupSubject  func(ctx context.Context, subjectID string) (Identity, error)
	SubjectMissing func(error) bool

	IssueAccess func(Identity) (IssuedToken, error)

	Warn func(string, ...any)
}

// RunRefresh mints a new access token for a live refresh session. The role is
// re-resolved from the directory rather than copied from the old token, and the
// refresh token itself is not rotated.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if strings.TrimSpace(refreshToken) == "" {
		return RefreshResult{Failure: RefreshFailureEmpty}
	}

	subjectID, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		if deps.Expired != nil && deps.Expired(err) {
			forget(ctx, refreshToken, deps.Sessions, deps.Warn)
			return RefreshResult{Failure: RefreshFailureExpired, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}

	active, err := deps.Sessions.Contains(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureUnavailable, Err: err, SubjectID: subjectID}
	}
	if !active {
		return RefreshResult{
			Failure:   RefreshFailureNotActive,
			Err:       errors.New("refresh session not active"),
			SubjectID: subjectID,
		}
	}

	identity, err := deps.LookupSubject(ctx, subjectID)
	if err != nil {
		if deps.SubjectMissing != nil && deps.SubjectMissing(err) {
			forget(ctx, refreshToken, deps.Sessions, deps.Warn)
			return RefreshResult{Failure: RefreshFailureSubjectGone, Err: err, SubjectID: subjectID}
		}
		return RefreshResult{Failure: RefreshFailureUnavailable, Err: err, SubjectID: subjectID}
	}
	if !identity.Role.Valid() {
		forget(ctx, refreshToken, deps.Sessions, deps.Warn)
		return RefreshResult{
			Failure:   RefreshFailureRole,
			Err:       errors.New("directory returned unknown role"),
			SubjectID: subjectID,
			Identity:  identity,
		}
	}

	access, err := deps.IssueAccess(identity)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, SubjectID: subjectID, Identity: identity}
	}

	return RefreshResult{
		SubjectID: subjectID,
		Identity:  identity,
		Access:    access,
	}
}

// forget drops a session entry that can never be honored again. A failure is
// only logged: the caller is already being refused.
func forget(ctx context.Context, token string, store RefreshSessionStore, warn func(string, ...any)) {
	if err := store.Remove(ctx, token); err != nil {
		warn("tokengate: failed to drop dead refresh session", "error", err)
	}
}
