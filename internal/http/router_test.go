package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/accounts-api/internal/auth"
	"github.com/redmonkez12/accounts-api/internal/config"
	"github.com/redmonkez12/accounts-api/internal/httputil"
	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/user"
)

const (
	usersURL = "/users/"
	tokenURL = "/users/token/"
	meURL    = "/users/me/"
)

type apiEnv struct {
	router *chi.Mux
	users  *user.Store
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := logging.NewNopLogger()
	users := user.NewStore(user.NewMemoryRepository())
	service := auth.NewService(users, auth.NewMemoryRepository(), nil, logger)

	cfg := &config.Config{Server: config.ServerConfig{Env: "prod"}}
	router := NewRouter(cfg, auth.NewHandler(service, users), auth.NewMiddleware(service), logger)

	return &apiEnv{router: router, users: users}
}

func (e *apiEnv) do(t *testing.T, method, url string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) register(t *testing.T, email, password, name string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, usersURL, map[string]string{
		"email": email, "password": password, "name": name,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *apiEnv) obtainToken(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, tokenURL, map[string]string{
		"email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp auth.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestCreateUser(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, usersURL, map[string]string{
		"email": "test@example.com", "password": "testpass123", "name": "Test name",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"email": "test@example.com", "name": "Test name"}, body)

	u, err := env.users.FindByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.True(t, u.CheckPassword("testpass123"))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")

	rec := env.do(t, http.MethodPost, usersURL, map[string]string{
		"email": "TEST@example.com", "password": "otherpass123",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[httputil.ErrorResponse](t, rec)
	assert.Equal(t, []string{user.MsgDuplicateMail}, resp.Fields["email"])
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	env := newAPIEnv(t)

	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"short password", map[string]string{"email": "test@example.com", "password": "pw"}, "password"},
		{"missing password", map[string]string{"email": "test@example.com"}, "password"},
		{"missing email", map[string]string{"password": "testpass123"}, "email"},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "testpass123"}, "email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, usersURL, tc.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decode[httputil.ErrorResponse](t, rec)
			assert.Equal(t, httputil.CodeValidationFailed, resp.Code)
			assert.Contains(t, resp.Fields, tc.field)
		})
	}

	users, err := env.users.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateUser_InvalidBody(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodPost, usersURL, bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidRequestBody, decode[httputil.ErrorResponse](t, rec).Code)
}

func TestObtainToken_ReturnsSameToken(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")

	first := env.obtainToken(t, "test@example.com", "testpass123")
	assert.Len(t, first, 40)

	second := env.obtainToken(t, "test@example.com", "testpass123")
	assert.Equal(t, first, second)
}

func TestObtainToken_FailuresLookAlike(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")

	var bodies []string
	for _, creds := range []map[string]string{
		{"email": "test@example.com", "password": "wrongpass"},
		{"email": "nobody@example.com", "password": "testpass123"},
		{"email": "", "password": ""},
		{"email": "test@example.com"},
	} {
		rec := env.do(t, http.MethodPost, tokenURL, creds, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decode[httputil.ErrorResponse](t, rec)
		assert.Equal(t, httputil.CodeAuthorization, resp.Code)
		assert.NotContains(t, rec.Body.String(), "token\"")
		bodies = append(bodies, rec.Body.String())
	}

	for _, b := range bodies[1:] {
		assert.Equal(t, bodies[0], b)
	}
}

func TestMe_RequiresAuthentication(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, meURL, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, httputil.CodeMissingAuth, decode[httputil.ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, meURL, nil, "0123456789abcdef0123456789abcdef01234567")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeInvalidToken, decode[httputil.ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPatch, meURL, map[string]string{"name": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_AuthorizationHeaderForms(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")
	token := env.obtainToken(t, "test@example.com", "testpass123")

	cases := []struct {
		header string
		status int
	}{
		{"Token " + token, http.StatusOK},
		{"token " + token, http.StatusOK},
		{"Bearer " + token, http.StatusOK},
		{"Token", http.StatusUnauthorized},
		{"Token " + token + " extra", http.StatusUnauthorized},
		{"Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{token, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, meURL, nil)
		req.Header.Set("Authorization", tc.header)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.header)
	}
}

func TestMe_RetrieveProfile(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "Test name")
	token := env.obtainToken(t, "test@example.com", "testpass123")

	rec := env.do(t, http.MethodGet, meURL, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"email": "test@example.com", "name": "Test name"}, decode[map[string]any](t, rec))
}

func TestMe_PostNotAllowed(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")
	token := env.obtainToken(t, "test@example.com", "testpass123")

	rec := env.do(t, http.MethodPost, meURL, map[string]string{}, token)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, httputil.CodeMethodNotAllowed, decode[httputil.ErrorResponse](t, rec).Code)
}

func TestMe_UpdateProfile(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "Test name")
	token := env.obtainToken(t, "test@example.com", "testpass123")

	rec := env.do(t, http.MethodPatch, meURL, map[string]string{
		"name": "new name", "password": "newpassword123",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"email": "test@example.com", "name": "new name"}, decode[map[string]any](t, rec))

	u, err := env.users.FindByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new name", u.Name)
	assert.True(t, u.CheckPassword("newpassword123"))
	assert.False(t, u.CheckPassword("testpass123"))

	// the existing token keeps working after a password change
	rec = env.do(t, http.MethodGet, meURL, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, tokenURL, map[string]string{
		"email": "test@example.com", "password": "testpass123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, token, env.obtainToken(t, "test@example.com", "newpassword123"))
}

func TestMe_UpdateValidation(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")
	env.register(t, "other@example.com", "testpass123", "")
	token := env.obtainToken(t, "test@example.com", "testpass123")

	rec := env.do(t, http.MethodPatch, meURL, map[string]string{"password": "pw"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[httputil.ErrorResponse](t, rec).Fields, "password")

	rec = env.do(t, http.MethodPatch, meURL, map[string]string{"email": "OTHER@example.com"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{user.MsgDuplicateMail}, decode[httputil.ErrorResponse](t, rec).Fields["email"])
}

func TestMe_InactiveUserRejected(t *testing.T) {
	env := newAPIEnv(t)
	env.register(t, "test@example.com", "testpass123", "")
	token := env.obtainToken(t, "test@example.com", "testpass123")

	ctx := context.Background()
	u, err := env.users.FindByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	inactive := false
	_, err = env.users.Update(ctx, u.ID, user.UpdateParams{IsActive: &inactive})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, meURL, nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, tokenURL, map[string]string{
		"email": "test@example.com", "password": "testpass123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = env.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
