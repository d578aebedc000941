// Package rate provides the Redis-backed failed-login throttle used by the
// engine's login flow.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes
// (after the configured prefix):
//   - al:  login per-identifier
//   - ali: login per-IP
//
// # What this package must NOT do
//
//   - Decide credential validity; it only counts failures reported by the caller.
//   - Be imported outside the tokengate module.
package rate
