package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-grc-explorer/pkg/auth"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header. SSE
// clients cannot set headers, so the access_token query parameter is
// accepted as well.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.URL.Query().Get("access_token")
}

// RequireAuth rejects requests without a valid token and stores the claims
// in the request context. skip lists exact paths served without a token.
func RequireAuth(validator TokenValidator, logger logging.Logger, onFailure func(), skip ...string) Middleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	open := make(map[string]bool, len(skip))
	for _, p := range skip {
		open[p] = true
	}
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			token := BearerToken(r)
			if token == "" {
				fail(w, onFailure, "Missing bearer token")
				return
			}
			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				logger.Debug("token validation failed", logging.Path(r.URL.Path), logging.Error(err))
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token has expired"
				}
				fail(w, onFailure, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func fail(w http.ResponseWriter, onFailure func(), msg string) {
	if onFailure != nil {
		onFailure()
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="grc-explorer"`)
	http.Error(w, msg, http.StatusUnauthorized)
}

// RequireRole wraps a handler so that only claims allowing role reach it.
// Without claims in the context (auth disabled) the request passes.
func RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := auth.ClaimsFrom(r.Context()); ok && !claims.Allows(role) {
			http.Error(w, "Insufficient role", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
