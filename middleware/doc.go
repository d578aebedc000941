// Package middleware adapts a tokengate Engine to net/http.
//
// [Authenticate] reads the Authorization header, checks the bearer token and
// stores the verified claims in the request context. [Require],
// [RequireRole] and [RequireOwner] run after it and evaluate a permission
// predicate against those claims.
//
// Engine errors map to status codes with [StatusFor]: ErrUnauthorized is 401,
// ErrForbidden is 403, ErrRateLimited is 429, everything else is 503.
// Rejections are written by [WriteError] as plain text unless a handler is
// built with [WithErrorWriter].
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Access Redis or the directory.
//   - Make authorization decisions beyond what Engine.Authorize returns.
package middleware
