package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/middleware"
)

// Error is the JSON body of every failed request.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeInternal     = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeEngineError renders an Engine error. The message is the generic
// status text so no detail about the failure reaches the client.
func writeEngineError(w http.ResponseWriter, err error) {
	status := middleware.StatusFor(err)
	code := ErrCodeUnavailable
	switch {
	case errors.Is(err, tokengate.ErrUnauthorized):
		code = ErrCodeUnauthorized
	case errors.Is(err, tokengate.ErrForbidden):
		code = ErrCodeForbidden
	case errors.Is(err, tokengate.ErrRateLimited):
		code = ErrCodeRateLimited
		w.Header().Set("Retry-After", "60")
	}
	writeError(w, status, code, http.StatusText(status))
}
