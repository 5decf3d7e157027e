// Package middleware exposes the net/http adapter for jwtguard's
// authentication engine.
//
// [Guard] wraps a handler chain: it runs one authentication pass per
// request, rejects with 401, surfaces retriever malfunctions as 500, lets
// excluded paths through untouched, and injects the authenticated user and
// the verified token into the request context for downstream handlers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the Engine).
//   - Reveal why a credential was rejected; every rejection is a bare 401.
package middleware
