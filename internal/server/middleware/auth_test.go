package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator map[string]string

func (v stubValidator) ValidateToken(token string) (string, error) {
	subject, ok := v[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return subject, nil
}

func protected(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return Authenticator(stubValidator{"good": "ci-bot"}, "/health")(next), &seen
}

func TestAuthenticator_ValidToken(t *testing.T) {
	h, seen := protected(t)

	for _, header := range []string{"Bearer good", "bearer good", "BEARER   good"} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/runs", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, "ci-bot", *seen)
		})
	}
}

func TestAuthenticator_Rejects(t *testing.T) {
	h, _ := protected(t)

	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic good",
		"no token":       "Bearer",
		"extra parts":    "Bearer good extra",
		"unknown token":  "Bearer bad",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/runs", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestAuthenticator_PublicPathAndPreflight(t *testing.T) {
	h, seen := protected(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, *seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/runs", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSubject_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Subject(req.Context())
	assert.False(t, ok)
}
