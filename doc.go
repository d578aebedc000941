// Package tokengate issues, verifies, refreshes and revokes the bearer
// credentials of a streaming backend, and makes the authorization decision
// protected routes consume.
//
// A session starts with [Engine.Login], which returns a short-lived access
// token and a long-lived refresh token. The refresh token is registered in a
// revocation store; [Engine.Refresh] accepts it only while it is registered
// and correctly signed, and re-reads the subject's role from the directory
// every time. [Engine.Logout] unregisters it. [Engine.Check] verifies an
// access token without touching any store, and [Engine.Authorize] evaluates a
// [permission.Predicate] against the verified claims.
//
// # Architecture boundaries
//
// tokengate is the public surface. It exposes [Engine], [Builder], [Config],
// the outward errors and value types. Flow orchestration, the login throttle
// and audit dispatch live under internal/. Token codecs, revocation stores,
// password verifiers and predicates are separate packages so servers can
// pick backends without importing the rest.
//
// # Errors
//
// Every Engine operation fails with one of [ErrUnauthorized], [ErrForbidden],
// [ErrUnavailable], [ErrRateLimited] or [ErrEngineNotReady]. Internal causes
// (unknown identifier vs wrong secret, bad signature vs expiry) are logged,
// counted and audited, never returned.
//
// # Concurrency
//
// Engine methods are safe to call from multiple goroutines. A logout racing
// a refresh of the same token resolves to one of two outcomes, and once
// Logout has returned no later Refresh of that token succeeds.
package tokengate
