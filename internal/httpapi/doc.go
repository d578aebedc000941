// Package httpapi serves the tokengate engine over HTTP.
//
// Routes:
//
//	POST   /auth/login    {"email","password"} -> {accessToken, refreshToken, role}
//	POST   /auth/token    {"token"}            -> {accessToken}
//	DELETE /auth/logout   {"token"}            -> 204
//	GET    /auth/check    Authorization: Bearer -> verified claims
//	GET    /healthz       engine readiness
//	GET    /metrics       Prometheus exposition, when a handler is supplied
//
// Malformed request bodies are rejected with 400 before reaching the engine.
// Engine errors are mapped by middleware.StatusFor.
//
// The server follows the usual lifecycle:
//
//	srv, err := httpapi.New(deps)
//	srv.Start(ctx)
//	defer srv.Close()
package httpapi
