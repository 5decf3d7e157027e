package jwtguard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cwhitmore/jwtguard/token"
)

// Config defines the full engine configuration. It is consumed once by
// [Builder.Build], deep-copied, validated, and treated as immutable for the
// lifetime of the engine.
type Config struct {
	JWT      JWTConfig
	Header   HeaderConfig
	Cookie   CookieConfig
	OAuth2   OAuth2Config
	Response ResponseConfig
	Audit    AuditConfig
	Metrics  MetricsConfig

	// Exclude lists path patterns exempt from authentication. A pattern
	// matches its exact path and everything below it on segment boundaries:
	// "/login" matches "/login" and "/login/x" but never "/login-admin".
	Exclude []string

	// SchemeName keys the security-scheme descriptor map consumed by
	// documentation generators.
	SchemeName string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig carries the signing configuration handed to the token codec.
type JWTConfig struct {
	// Secret is the symmetric signing key. Never logged, never echoed back.
	Secret []byte
	// Algorithm defaults to HS256.
	Algorithm token.Algorithm
	// DefaultExpiration is added to the issuance time when a login or
	// CreateToken call does not specify one.
	DefaultExpiration time.Duration
	// VerifyKeys enables verify-only ES256 operation against a kid-indexed
	// PEM public key set (see the gcp package).
	VerifyKeys map[string][]byte
	// Audience, when set, is required to appear in the aud claim of every
	// verified token.
	Audience string
}

/*
====================================
HEADER CONFIG
====================================
*/

// HeaderConfig controls header-based credential delivery. It applies to the
// default bearer profile and the OAuth2 profile, and to header extraction in
// the cookie profile.
type HeaderConfig struct {
	// Name of the request header carrying the credential. Default
	// "Authorization".
	Name string
	// Scheme is the prefix expected before the raw token, stripped during
	// extraction; a mismatch is a rejection. Default "Bearer". An
	// explicitly empty scheme means the header carries the bare token
	// (used by proxy-injected assertions such as Google IAP).
	Scheme string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig enables the cookie delivery profile. All attributes pass
// through verbatim to the response cookie.
type CookieConfig struct {
	Enabled bool
	// Name of the cookie. Default "token". No scheme prefix is expected
	// inside the cookie value.
	Name     string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	// MirrorHeader also places the issued token in the auth header of
	// login responses for non-browser clients. Default true.
	MirrorHeader bool
}

/*
====================================
OAUTH2 CONFIG
====================================
*/

// OAuth2Config enables the OAuth2 password-bearer profile. Verification is
// identical to the header profile; the fields below only shape the security
// descriptor. Credential checking against username/password stays with the
// login handler serving TokenURL.
type OAuth2Config struct {
	Enabled  bool
	TokenURL string
	Scopes   map[string]string
}

/*
====================================
RESPONSE CONFIG
====================================
*/

// ResponseConfig shapes login responses.
type ResponseConfig struct {
	// Status defaults to 201 Created.
	Status int
	// ContentType defaults to "application/json".
	ContentType string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Algorithm:         token.AlgHS256,
			DefaultExpiration: 24 * time.Hour,
		},
		Header: HeaderConfig{
			Name:   "Authorization",
			Scheme: "Bearer",
		},
		Cookie: CookieConfig{
			Name:         "token",
			Path:         "/",
			HTTPOnly:     true,
			SameSite:     http.SameSiteLaxMode,
			MirrorHeader: true,
		},
		Response: ResponseConfig{
			Status:      http.StatusCreated,
			ContentType: "application/json",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		SchemeName: "BearerToken",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	if cfg.OAuth2.Scopes != nil {
		out.OAuth2.Scopes = make(map[string]string, len(cfg.OAuth2.Scopes))
		for scope, description := range cfg.OAuth2.Scopes {
			out.OAuth2.Scopes[scope] = description
		}
	}
	out.Exclude = append([]string(nil), cfg.Exclude...)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Validate reports the first configuration problem. Key material is checked
// again, in depth, by the token codec at build time.
func (c *Config) Validate() error {
	if c.JWT.DefaultExpiration <= 0 {
		return errors.New("default token expiration must be positive")
	}
	if strings.TrimSpace(c.Header.Name) == "" {
		return errors.New("auth header name required")
	}
	if c.Header.Scheme != strings.TrimSpace(c.Header.Scheme) {
		return errors.New("auth header scheme must not carry surrounding whitespace")
	}
	if c.Cookie.Enabled && c.OAuth2.Enabled {
		return errors.New("cookie and oauth2 profiles are mutually exclusive")
	}
	if c.Cookie.Enabled && strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("cookie profile requires a cookie name")
	}
	if c.OAuth2.Enabled && strings.TrimSpace(c.OAuth2.TokenURL) == "" {
		return errors.New("oauth2 profile requires a token url")
	}
	if c.Response.Status != 0 && (c.Response.Status < 100 || c.Response.Status > 599) {
		return errors.New("invalid login response status")
	}
	if strings.TrimSpace(c.SchemeName) == "" {
		return errors.New("security scheme name required")
	}
	for _, pattern := range c.Exclude {
		if !strings.HasPrefix(pattern, "/") {
			return fmt.Errorf("excluded path %q must start with a slash", pattern)
		}
	}
	return nil
}
