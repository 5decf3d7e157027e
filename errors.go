package jwtguard

import "errors"

var (
	// ErrNotAuthorized wraps every credential rejection. It is the only
	// error class the HTTP layer may act on; the wrapped cause is for
	// diagnostics only.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNoCredential is the rejection cause when no credential is present
	// in the configured header or cookie.
	ErrNoCredential = errors.New("no credential presented")
	// ErrMalformedCredential is the rejection cause when a credential is
	// present but has the wrong shape, e.g. a missing scheme prefix or an
	// empty value.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrUserNotFound is the rejection cause when the retriever resolves
	// the token subject to no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserRetrieval marks a malfunction of the user retriever itself.
	// It is a server-side failure, never a credential rejection, and never
	// wraps ErrNotAuthorized.
	ErrUserRetrieval = errors.New("user retrieval failed")
)
