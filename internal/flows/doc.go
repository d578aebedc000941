// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunLogout, RunCheck) accepts a
// typed dependency struct and returns a result carrying a failure kind. The
// root Engine maps failure kinds to its outward sentinel errors, counts them
// and emits audit events, which keeps the Engine thin and the flows testable
// with plain function stubs.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the revocation store, token codecs,
// credential verifier and login throttle. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import tokengate (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency fields.
package flows
