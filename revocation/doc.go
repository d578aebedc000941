// Package revocation tracks which refresh tokens are currently honored.
//
// A refresh token is accepted by the engine only while its fingerprint is
// present in a [Store]. Login adds an entry, logout removes it, and expired
// entries disappear lazily. Durable backends never see the raw token string,
// only its SHA-256 [Fingerprint].
//
// # Backends
//
//   - [Memory]: process-local map, for tests and single-instance deployments.
//   - [Redis]: one key per session with a PX expiry matching the token.
//   - [Postgres]: rows in refresh_sessions, schema owned by the migrations package.
//
// # What this package must NOT do
//
//   - Verify token signatures or expiry claims (the jwt package does that).
//   - Import tokengate (no upward imports).
package revocation
