package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/accounts-api/internal/httputil"
	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

const (
	msgMissingAuth  = "Authentication credentials were not provided."
	msgInvalidToken = "Invalid token."

	// authScheme is advertised in WWW-Authenticate on every 401
	authScheme = "Token"
)

// Authenticator resolves a token key to its active owner
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	authenticator Authenticator
}

func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// RequireAuth rejects requests without a valid "Token <key>" header and
// stores the caller in the request context otherwise
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		key, present, ok := parseAuthorization(r.Header.Get("Authorization"))
		if !present {
			unauthorized(w, r, msgMissingAuth, httputil.CodeMissingAuth)
			return
		}
		if !ok {
			logger.Debug("malformed authorization header")
			unauthorized(w, r, msgInvalidToken, httputil.CodeInvalidToken)
			return
		}

		u, err := m.authenticator.Authenticate(r.Context(), key)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				unauthorized(w, r, msgInvalidToken, httputil.CodeInvalidToken)
				return
			}
			logger.Error("failed to authenticate token", "error", err.Error())
			httputil.RespondErrorWithCode(w, r, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, u)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"user_id": u.ID.String()}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok && u != nil
}

// parseAuthorization splits an Authorization header value.
// present is false when the header is empty or uses another scheme, so the
// request counts as anonymous. ok is false when the scheme matches but the
// credentials are malformed.
func parseAuthorization(header string) (key string, present, ok bool) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return "", false, false
	}

	scheme := strings.ToLower(fields[0])
	if scheme != "token" && scheme != "bearer" {
		return "", false, false
	}

	if len(fields) != 2 {
		return "", true, false
	}

	return fields[1], true, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, message, code string) {
	w.Header().Set("WWW-Authenticate", authScheme)
	httputil.RespondErrorWithCode(w, r, message, code, http.StatusUnauthorized)
}
