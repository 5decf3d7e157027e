package token

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Algorithm identifies the JWT signing scheme of a [Codec].
type Algorithm string

const (
	// AlgHS256 is the default symmetric algorithm.
	AlgHS256 Algorithm = "HS256"
	// AlgHS384 is an exported symmetric algorithm choice.
	AlgHS384 Algorithm = "HS384"
	// AlgHS512 is an exported symmetric algorithm choice.
	AlgHS512 Algorithm = "HS512"
	// AlgES256 enables verify-only operation against a kid-indexed public
	// key set. Used for tokens minted elsewhere, e.g. by Google's IAP.
	AlgES256 Algorithm = "ES256"
)

// Config holds the key material and defaults for a [Codec]. It is consumed
// once by [NewCodec] and must not be mutated afterwards.
type Config struct {
	// Secret is the symmetric signing key for the HS* algorithms.
	Secret []byte
	// Algorithm selects the signing scheme. Defaults to [AlgHS256].
	Algorithm Algorithm
	// DefaultTTL is added to the issuance time when Issue is called without
	// an explicit expiration.
	DefaultTTL time.Duration
	// VerifyKeys maps a JWT header kid to a PEM-encoded public key. Only
	// valid with [AlgES256]; the resulting codec cannot sign.
	VerifyKeys map[string][]byte
	// Audience, when set, is required in the aud claim of every decoded
	// token. It is not stamped onto issued tokens; use WithAudience.
	Audience string
}

// Codec encodes and decodes signed tokens. Safe for concurrent use.
type Codec struct {
	config     Config
	method     jwt.SigningMethod
	parser     *jwt.Parser
	verifyKeys map[string]*ecdsa.PublicKey
}

// NewCodec validates cfg and returns a ready Codec. All configuration
// problems surface here, never per call.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgHS256
	}
	if cfg.DefaultTTL <= 0 {
		return nil, errors.New("default token expiration must be positive")
	}

	c := &Codec{config: cfg}

	switch cfg.Algorithm {
	case AlgHS256:
		c.method = jwt.SigningMethodHS256
	case AlgHS384:
		c.method = jwt.SigningMethodHS384
	case AlgHS512:
		c.method = jwt.SigningMethodHS512
	case AlgES256:
		c.method = jwt.SigningMethodES256
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	switch cfg.Algorithm {
	case AlgES256:
		if len(cfg.Secret) > 0 {
			return nil, errors.New("es256 verification does not take a shared secret")
		}
		if len(cfg.VerifyKeys) == 0 {
			return nil, errors.New("es256 requires a verify key set")
		}
		c.verifyKeys = make(map[string]*ecdsa.PublicKey, len(cfg.VerifyKeys))
		for kid, pemKey := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key set contains empty kid")
			}
			key, err := jwt.ParseECPublicKeyFromPEM(pemKey)
			if err != nil {
				return nil, fmt.Errorf("invalid es256 verify key for kid %q: %w", kid, err)
			}
			c.verifyKeys[kid] = key
		}
	default:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hmac algorithms require a secret")
		}
		if len(cfg.VerifyKeys) > 0 {
			return nil, errors.New("verify key set is only valid with es256")
		}
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{string(cfg.Algorithm)}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}
	c.parser = jwt.NewParser(parserOpts...)

	return c, nil
}

// IssueOption customizes a single Issue call.
type IssueOption func(*issueOptions)

type issueOptions struct {
	expiresAt time.Time
	ttl       time.Duration
	extra     map[string]any
	issuer    string
	audience  string
	jti       string
}

// WithTTL sets the token lifetime relative to the issuance time, overriding
// the codec default.
func WithTTL(ttl time.Duration) IssueOption {
	return func(o *issueOptions) { o.ttl = ttl }
}

// WithExpiresAt sets an absolute expiration instant. Takes precedence over
// WithTTL. Sub-second precision is truncated.
func WithExpiresAt(at time.Time) IssueOption {
	return func(o *issueOptions) { o.expiresAt = at }
}

// WithExtra merges application-defined claims into the token top level.
// Keys colliding with the registered claims (sub, exp, iat, jti, iss, aud)
// are dropped; the registered values always win.
func WithExtra(extra map[string]any) IssueOption {
	return func(o *issueOptions) { o.extra = extra }
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) IssueOption {
	return func(o *issueOptions) { o.issuer = issuer }
}

// WithAudience sets the aud claim.
func WithAudience(audience string) IssueOption {
	return func(o *issueOptions) { o.audience = audience }
}

// WithJTI overrides the generated unique token id.
func WithJTI(jti string) IssueOption {
	return func(o *issueOptions) { o.jti = jti }
}

// Issue builds and signs a compact token for subject. A fresh jti is
// generated unless overridden, iat is the current time, and exp defaults to
// iat plus the codec's DefaultTTL.
func (c *Codec) Issue(subject string, opts ...IssueOption) (string, error) {
	if c.verifyKeys != nil {
		return "", ErrSigningUnavailable
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject must not be empty")
	}

	var o issueOptions
	for _, opt := range opts {
		opt(&o)
	}

	now := time.Now().UTC().Truncate(time.Second)
	exp := o.expiresAt
	if exp.IsZero() {
		ttl := o.ttl
		if ttl == 0 {
			ttl = c.config.DefaultTTL
		}
		exp = now.Add(ttl)
	}
	exp = exp.UTC().Truncate(time.Second)

	jti := o.jti
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"jti": jti,
	}
	if o.issuer != "" {
		claims["iss"] = o.issuer
	}
	if o.audience != "" {
		claims["aud"] = o.audience
	}
	for key, value := range o.extra {
		if _, reserved := reservedClaims[key]; reserved {
			continue
		}
		claims[key] = value
	}

	return jwt.NewWithClaims(c.method, claims).SignedString(c.config.Secret)
}

// Decode parses raw, verifies its signature and expiry, and returns the
// payload. It fails with [ErrExpired] for stale tokens and [ErrInvalid] for
// everything else; callers must not leak which of the two occurred.
func (c *Codec) Decode(raw string) (*Token, error) {
	parsed, err := c.parser.Parse(raw, c.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}

	// Tokens we mint always carry a jti; foreign issuers verified through
	// a key set (e.g. Google IAP) do not.
	return fromClaims(claims, c.verifyKeys == nil)
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != string(c.config.Algorithm) {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if c.verifyKeys != nil {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := c.verifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	}

	return c.config.Secret, nil
}
