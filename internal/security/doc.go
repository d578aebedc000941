// Package security derives a read-only posture report from an engine's
// effective configuration.
//
// The report never carries secret material; it is safe to log at startup
// or expose on an operator endpoint.
package security
