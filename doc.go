// Package jwtguard provides stateless JWT bearer authentication for HTTP
// services: it issues signed tokens for an identified subject, verifies
// tokens presented on inbound requests, and resolves the token subject to an
// application-defined user through a caller-supplied retriever.
//
// Three delivery profiles share one verification core: Authorization-header
// bearer tokens, HTTP-only cookie tokens, and OAuth2 password-flow bearer
// tokens. A profile differs only in how the credential is extracted from the
// request and attached to the login response, and in the security-scheme
// descriptor it exposes for documentation generators.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Configuration is immutable once built; there is no shared
// mutable state between authentication passes.
//
// # Architecture boundaries
//
// jwtguard is the public surface. It exposes [Engine], [Builder], [Config],
// [AuthResult], and the audit sink types. Token claim layout and
// cryptographic verification live in the token subpackage; HTTP handler
// adapters live in the middleware subpackage; audit event dispatch lives
// under internal/ and is never exported directly.
//
// # What this package must NOT do
//
//   - Persist anything: no sessions, no revocation lists, no refresh tokens.
//   - Check passwords or other primary credentials; the login handler that
//     calls [Engine.Login] owns that.
//   - Log, echo, or copy signing-key material.
//   - Leak which verification failure occurred to the HTTP caller; rejected
//     requests are externally indistinguishable.
package jwtguard
