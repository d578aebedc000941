package middleware

import (
	"net/http"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/permission"
)

// Require admits requests whose claims satisfy pred. It must run after
// Authenticate; a request without claims is rejected with 401.
func Require(engine *tokengate.Engine, pred permission.Predicate, opts ...Option) func(http.Handler) http.Handler {
	return requireFunc(engine, func(*http.Request) permission.Predicate { return pred }, opts)
}

// RequireRole admits requests whose role is one of roles.
func RequireRole(engine *tokengate.Engine, roles ...tokengate.Role) func(http.Handler) http.Handler {
	return Require(engine, permission.RequireRole(roles...))
}

// RequireOwner admits requests whose subject owns the resource named by
// ownerFn. An empty owner id never matches.
func RequireOwner(engine *tokengate.Engine, ownerFn func(*http.Request) string, opts ...Option) func(http.Handler) http.Handler {
	return requireFunc(engine, func(r *http.Request) permission.Predicate {
		return permission.RequireOwner(ownerFn(r))
	}, opts)
}

func requireFunc(engine *tokengate.Engine, predFn func(*http.Request) permission.Predicate, opts []Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				o.writeError(w, tokengate.ErrEngineNotReady)
				return
			}

			claims, _ := ClaimsFromContext(r.Context())
			if err := engine.Authorize(claims, predFn(r)); err != nil {
				o.writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
