package jwtguard

import (
	"net/http"
	"strings"
	"time"
)

// strategy is the delivery mechanism of one backend profile: how a credential
// is pulled from a request, how an issued token is attached to a login
// response, and how the profile describes itself to documentation
// generators. Verification is shared and never duplicated per profile.
type strategy interface {
	extract(r *http.Request) (string, error)
	attach(w http.ResponseWriter, encoded string, expires time.Time)
	describe() SecurityScheme
}

func strategyFor(cfg Config) strategy {
	header := headerStrategy{
		name:   cfg.Header.Name,
		scheme: cfg.Header.Scheme,
	}
	switch {
	case cfg.OAuth2.Enabled:
		return oauth2Strategy{
			headerStrategy: header,
			tokenURL:       cfg.OAuth2.TokenURL,
			scopes:         cfg.OAuth2.Scopes,
		}
	case cfg.Cookie.Enabled:
		return cookieStrategy{
			headerStrategy: header,
			cookie:         cfg.Cookie,
		}
	default:
		return header
	}
}

/*
====================================
HEADER BEARER
====================================
*/

type headerStrategy struct {
	name   string
	scheme string
}

func (s headerStrategy) extract(r *http.Request) (string, error) {
	value := r.Header.Get(s.name)
	if value == "" {
		return "", ErrNoCredential
	}
	return s.stripScheme(value)
}

// stripScheme validates and removes the configured scheme prefix. An empty
// configured scheme means the header carries the bare token.
func (s headerStrategy) stripScheme(value string) (string, error) {
	if s.scheme == "" {
		return value, nil
	}
	prefix := s.scheme + " "
	if !strings.HasPrefix(value, prefix) {
		return "", ErrMalformedCredential
	}
	raw := value[len(prefix):]
	if raw == "" {
		return "", ErrMalformedCredential
	}
	return raw, nil
}

func (s headerStrategy) attach(w http.ResponseWriter, encoded string, _ time.Time) {
	w.Header().Set(s.name, s.headerValue(encoded))
}

func (s headerStrategy) headerValue(encoded string) string {
	if s.scheme == "" {
		return encoded
	}
	return s.scheme + " " + encoded
}

func (s headerStrategy) describe() SecurityScheme {
	return SecurityScheme{
		Type:         "http",
		Scheme:       "Bearer",
		Name:         s.name,
		In:           "header",
		BearerFormat: "JWT",
		Description:  "JWT bearer authentication and authorization.",
	}
}

/*
====================================
COOKIE BEARER
====================================
*/

type cookieStrategy struct {
	headerStrategy
	cookie CookieConfig
}

func (s cookieStrategy) extract(r *http.Request) (string, error) {
	// A header credential, when present, is still honored with the full
	// scheme check; only then does extraction fall back to the cookie.
	if r.Header.Get(s.name) != "" {
		return s.headerStrategy.extract(r)
	}

	cookie, err := r.Cookie(s.cookie.Name)
	if err != nil {
		return "", ErrNoCredential
	}
	if cookie.Value == "" {
		return "", ErrMalformedCredential
	}
	return cookie.Value, nil
}

func (s cookieStrategy) attach(w http.ResponseWriter, encoded string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    encoded,
		Domain:   s.cookie.Domain,
		Path:     s.cookie.Path,
		Expires:  expires,
		Secure:   s.cookie.Secure,
		HttpOnly: s.cookie.HTTPOnly,
		SameSite: s.cookie.SameSite,
	})
	if s.cookie.MirrorHeader {
		s.headerStrategy.attach(w, encoded, expires)
	}
}

func (s cookieStrategy) describe() SecurityScheme {
	return SecurityScheme{
		Type:         "http",
		Scheme:       "Bearer",
		Name:         s.cookie.Name,
		In:           "cookie",
		BearerFormat: "JWT",
		Description:  "JWT cookie-based authentication and authorization.",
	}
}

/*
====================================
OAUTH2 PASSWORD BEARER
====================================
*/

type oauth2Strategy struct {
	headerStrategy
	tokenURL string
	scopes   map[string]string
}

func (s oauth2Strategy) describe() SecurityScheme {
	scopes := s.scopes
	if scopes == nil {
		scopes = map[string]string{}
	}
	return SecurityScheme{
		Type:         "oauth2",
		Scheme:       "Bearer",
		Name:         s.name,
		In:           "header",
		BearerFormat: "JWT",
		Description:  "OAuth2 password bearer authentication and authorization.",
		Flows: &OAuthFlows{
			Password: &OAuthFlow{
				TokenURL: s.tokenURL,
				Scopes:   scopes,
			},
		},
	}
}
