package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/tokengate"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*tokengate.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*tokengate.Claims)
	return c, ok && c != nil
}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *tokengate.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// StatusFor maps an Engine error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tokengate.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, tokengate.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, tokengate.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusServiceUnavailable
	}
}

// WriteError writes the status for err with the generic status text as a
// plain-text body. It is the default ErrorWriter.
func WriteError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	http.Error(w, http.StatusText(code), code)
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(http.ResponseWriter, error)

type options struct {
	writeError ErrorWriter
}

// Option configures Authenticate and the Require family.
type Option func(*options)

// WithErrorWriter replaces WriteError for rejected requests, so a service can
// keep its own error body format. A nil fn keeps the default.
func WithErrorWriter(fn ErrorWriter) Option {
	return func(o *options) {
		if fn != nil {
			o.writeError = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{writeError: WriteError}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Authenticate rejects requests without a valid access token and passes the
// verified claims to next through the request context.
func Authenticate(engine *tokengate.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				o.writeError(w, tokengate.ErrEngineNotReady)
				return
			}

			claims, err := engine.CheckHeader(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				o.writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
