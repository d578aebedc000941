// Package internal holds the private building blocks of tokengate.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: pure-function orchestrators behind every Engine operation
//   - rate: Redis-backed failed-login counters
//   - security: posture report derived from the effective configuration
//   - config: YAML and environment configuration for the server binary
//   - logging: slog factory for the server binary
//   - httpapi: chi-based HTTP surface over an Engine
package internal
