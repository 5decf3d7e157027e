// Package token implements the JWT payload model and the encode/decode/verify
// codec used by jwtguard.
//
// A [Codec] is built once from a validated [Config] and is safe for concurrent
// use. Issue produces a signed compact token with the registered claims
// sub/exp/iat/jti (plus optional iss/aud) and any caller-supplied extra claims
// merged at the top level. Decode verifies the signature and expiry and maps
// every failure to one of two kinds: [ErrExpired] for a correctly signed but
// stale token, [ErrInvalid] for everything else.
//
// # Architecture boundaries
//
// This package owns claim layout and cryptographic verification. It knows
// nothing about HTTP, cookies, or user lookup — those live in the jwtguard
// root and middleware packages.
//
// # What this package must NOT do
//
//   - Log or otherwise expose key material.
//   - Distinguish "bad signature" from "malformed payload" in its error kinds.
//   - Perform I/O of any sort.
package token
