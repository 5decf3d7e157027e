package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid is returned by Decode for any token that cannot be trusted:
	// malformed structure, signature mismatch, or a missing required claim.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned by Decode for a correctly signed token whose
	// expiration has passed.
	ErrExpired = errors.New("token expired")
	// ErrSigningUnavailable is returned by Issue on a verify-only codec.
	ErrSigningUnavailable = errors.New("codec has no signing key")
)

// reservedClaims are the registered claim names owned by Token itself.
// Extra entries using these keys are dropped at encode time; the struct
// fields always win.
var reservedClaims = map[string]struct{}{
	"sub": {},
	"exp": {},
	"iat": {},
	"jti": {},
	"iss": {},
	"aud": {},
}

// Token is the decoded claim set of a JWT issued or verified by a [Codec].
//
// Timestamps carry whole-second precision: sub-second components are
// truncated at encode time, which is inherent to the NumericDate wire format.
type Token struct {
	// Sub is the principal identifier. Required, never empty.
	Sub string
	// Exp is the absolute expiration instant. The token is invalid strictly
	// at or after this instant.
	Exp time.Time
	// Iat is the issuance instant.
	Iat time.Time
	// Jti uniquely identifies this issuance. Generated fresh per Issue call
	// unless overridden with [WithJTI].
	Jti string
	// Iss optionally identifies the issuer.
	Iss string
	// Aud optionally identifies the intended audience.
	Aud string
	// Extra carries application-defined claims merged at the JWT top level.
	Extra map[string]any
}

func fromClaims(claims jwt.MapClaims, requireJTI bool) (*Token, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalid)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalid)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, fmt.Errorf("%w: missing iat claim", ErrInvalid)
	}

	jti, _ := claims["jti"].(string)
	if jti == "" && requireJTI {
		return nil, fmt.Errorf("%w: missing jti claim", ErrInvalid)
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed iss claim", ErrInvalid)
	}

	var aud string
	audiences, err := claims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed aud claim", ErrInvalid)
	}
	if len(audiences) > 0 {
		aud = audiences[0]
	}

	tok := &Token{
		Sub: sub,
		Exp: exp.Time,
		Iat: iat.Time,
		Jti: jti,
		Iss: iss,
		Aud: aud,
	}

	for key, value := range claims {
		if _, reserved := reservedClaims[key]; reserved {
			continue
		}
		if tok.Extra == nil {
			tok.Extra = make(map[string]any, len(claims))
		}
		tok.Extra[key] = value
	}

	return tok, nil
}
