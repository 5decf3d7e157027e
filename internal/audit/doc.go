// Package audit carries structured authentication events from the engine to
// a caller-supplied sink.
//
// Events are dispatched asynchronously through a buffered channel so that a
// slow sink never blocks the request path. The dispatcher is created once at
// engine build time and drained on Close.
//
// # What this package must NOT do
//
//   - Import the jwtguard root package (no import cycles).
//   - Include key material or raw credentials in any event.
package audit
