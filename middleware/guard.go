package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/cwhitmore/jwtguard"
	"github.com/cwhitmore/jwtguard/token"
)

type userContextKey struct{}
type tokenContextKey struct{}

// UserFromContext returns the authenticated user attached by [Guard].
func UserFromContext(ctx context.Context) (any, bool) {
	user := ctx.Value(userContextKey{})
	return user, user != nil
}

// TokenFromContext returns the verified token payload attached by [Guard].
func TokenFromContext(ctx context.Context) (*token.Token, bool) {
	claims, ok := ctx.Value(tokenContextKey{}).(*token.Token)
	return claims, ok
}

// AuthFromContext returns the full per-request authentication result.
func AuthFromContext(ctx context.Context) (*jwtguard.AuthResult, bool) {
	claims, ok := ctx.Value(tokenContextKey{}).(*token.Token)
	if !ok {
		return nil, false
	}
	user, _ := UserFromContext(ctx)
	return &jwtguard.AuthResult{User: user, Token: claims}, true
}

// Guard returns middleware enforcing authentication through engine.
//
// Outcomes per request: excluded paths pass through unauthenticated;
// rejections stop at 401 without reaching the wrapped handler; retriever
// malfunctions stop at 500; successful passes continue with the user and
// token in the request context.
func Guard(engine *jwtguard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			result, err := engine.Authenticate(r.Context(), r)
			if err != nil {
				if errors.Is(err, jwtguard.ErrNotAuthorized) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if result == nil {
				// Excluded path: proceed without an identity.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, result.User)
			ctx = context.WithValue(ctx, tokenContextKey{}, result.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
