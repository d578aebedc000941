package internaldefs

import (
	"github.com/MrEthical07/tokengate"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter exporters publish, in output order.
var CounterDefs = []CounterDef{
	{ID: tokengate.MetricLoginSuccess, Name: "tokengate_login_success_total", Help: "Successful login attempts."},
	{ID: tokengate.MetricLoginFailure, Name: "tokengate_login_failure_total", Help: "Failed login attempts."},
	{ID: tokengate.MetricLoginRateLimited, Name: "tokengate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: tokengate.MetricRefreshSuccess, Name: "tokengate_refresh_success_total", Help: "Successful refresh operations."},
	{ID: tokengate.MetricRefreshFailure, Name: "tokengate_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: tokengate.MetricLogout, Name: "tokengate_logout_total", Help: "Logout operations."},
	{ID: tokengate.MetricCheckSuccess, Name: "tokengate_check_success_total", Help: "Access tokens accepted by check."},
	{ID: tokengate.MetricCheckFailure, Name: "tokengate_check_failure_total", Help: "Access tokens refused by check."},
	{ID: tokengate.MetricAuthorizeAllow, Name: "tokengate_authorize_allow_total", Help: "Permission predicates that allowed a request."},
	{ID: tokengate.MetricAuthorizeDeny, Name: "tokengate_authorize_deny_total", Help: "Permission predicates that denied a request."},
	{ID: tokengate.MetricBackendUnavailable, Name: "tokengate_backend_unavailable_total", Help: "Operations that failed on an unreachable backend."},
	{ID: tokengate.MetricSessionCreated, Name: "tokengate_session_created_total", Help: "Refresh sessions registered."},
	{ID: tokengate.MetricSessionInvalidated, Name: "tokengate_session_invalidated_total", Help: "Refresh sessions removed."},
}

// HistogramDefs lists every histogram exporters publish.
var HistogramDefs = []HistogramDef{
	{ID: tokengate.MetricCheckLatency, Name: "tokengate_check_latency_seconds", Help: "Access token check latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one extra overflow bucket past the last bound.
var HistogramUpperBounds = []float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.025,
}

// HistogramBounds renders every bucket bound, overflow included.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for instrument names.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
