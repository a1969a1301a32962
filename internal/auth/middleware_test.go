package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/accounts-api/internal/user"
)

type stubAuthenticator struct {
	user *user.User
	err  error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, key string) (*user.User, error) {
	return s.user, s.err
}

func TestParseAuthorization(t *testing.T) {
	cases := []struct {
		header  string
		key     string
		present bool
		ok      bool
	}{
		{"", "", false, false},
		{"Token abc", "abc", true, true},
		{"TOKEN abc", "abc", true, true},
		{"Bearer abc", "abc", true, true},
		{"Token", "", true, false},
		{"Token a b", "", true, false},
		{"Basic abc", "", false, false},
	}

	for _, tc := range cases {
		key, present, ok := parseAuthorization(tc.header)
		assert.Equal(t, tc.key, key, tc.header)
		assert.Equal(t, tc.present, present, tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
	}
}

func TestRequireAuth(t *testing.T) {
	u := &user.User{ID: uuid.New(), Email: "test@example.com", IsActive: true}

	var seen *user.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		auth   Authenticator
		header string
		status int
	}{
		{"valid", stubAuthenticator{user: u}, "Token abc", http.StatusNoContent},
		{"missing", stubAuthenticator{user: u}, "", http.StatusUnauthorized},
		{"rejected", stubAuthenticator{err: ErrUnauthenticated}, "Token abc", http.StatusUnauthorized},
		{"backend failure", stubAuthenticator{err: errors.New("db down")}, "Token abc", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/users/me/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			NewMiddleware(tc.auth).RequireAuth(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Equal(t, "Token", rec.Header().Get("WWW-Authenticate"))
			}
			if tc.status == http.StatusNoContent {
				assert.Equal(t, u, seen)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
