// Package jwt signs and verifies the two bearer-token classes (access and
// refresh) with independent HS256 secrets and strict validation semantics.
//
// A [Codec] is bound to exactly one [Kind] and one secret. [NewPair] builds
// both codecs and refuses identical secrets, so a refresh token never
// verifies as an access token and vice versa.
//
// # What this package must NOT do
//
//   - Consult any store: verification is purely cryptographic plus clock.
//   - Leak which check failed beyond the three sentinels
//     [ErrMalformed], [ErrBadSignature] and [ErrExpired].
package jwt
