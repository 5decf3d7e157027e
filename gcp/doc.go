// Package gcp wires jwtguard to Google Cloud's Identity-Aware Proxy.
//
// IAP sits in front of the application and injects a signed ES256 assertion
// into every forwarded request. This package fetches Google's public key set
// and assembles a verify-only engine that reads the assertion from the
// proxy header, so handlers behind IAP get the same [jwtguard.AuthResult]
// as any other profile.
//
// # Architecture boundaries
//
// This package only configures; verification and user resolution stay in
// the engine. It never signs tokens and has no login surface, because IAP
// itself is the issuer.
package gcp
