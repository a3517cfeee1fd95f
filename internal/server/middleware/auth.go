// Package middleware provides HTTP middleware for bearer token authentication.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values.
type ContextKey string

const subjectKey ContextKey = "subject"

// TokenValidator checks a bearer token and returns the subject it was issued
// to.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// Authenticator rejects requests without a valid bearer token. Public paths
// are matched exactly and skip the check.
func Authenticator(validator TokenValidator, public ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			subject, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Subject returns the authenticated subject stored by Authenticator.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="resume-genie"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}
