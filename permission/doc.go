// Package permission decides whether an authenticated principal may perform a
// request.
//
// Every protected route builds a [Predicate] (role membership, resource
// ownership, a named capability, or a combination) and hands it to
// [Guard.Authorize] together with the principal taken from a verified access
// token. The guard keeps the two outward failure signals apart: no principal
// is [ErrNoPrincipal] (Unauthorized), a principal that fails the predicate is
// [ErrDenied] (Forbidden).
//
// # What this package must NOT do
//
//   - Verify tokens or consult any store; the caller supplies a verified principal.
//   - Import tokengate, jwt, or revocation.
package permission
