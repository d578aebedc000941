package tokengate

import "errors"

// Outward errors. Every Engine operation fails with exactly one of these so
// callers (and the HTTP adapter) can map them without inspecting detail.
var (
	// ErrUnauthorized means no usable credential was presented: missing input,
	// unknown identifier or wrong secret. The cases are deliberately merged.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means a credential was presented but is not acceptable:
	// bad signature, expired, revoked, never issued, or denied by a predicate.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable means a backing dependency (directory, revocation store,
	// throttle) could not be reached. Callers may retry.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRateLimited is returned by Login when the failed-attempt throttle is engaged.
	ErrRateLimited = errors.New("rate limited")
	// ErrEngineNotReady is returned when a method is called on an Engine that
	// was not produced by Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Directory and verifier errors. They never leave the Engine.
var (
	// ErrIdentityNotFound is returned by a Directory when no record matches.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrSecretMismatch is returned by the CredentialVerifier for a wrong secret.
	ErrSecretMismatch = errors.New("secret mismatch")
)
