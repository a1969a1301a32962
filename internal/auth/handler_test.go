package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/accounts-api/internal/user"
)

func TestHandler_UpdateMeDoesNotRestoreStaleFields(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.createUser(t, "test@example.com")

	// the user as RequireAuth loaded it at the start of the request
	stale := *u

	inactive := false
	newPassword := "changed-password"
	_, err := env.users.Update(ctx, u.ID, user.UpdateParams{IsActive: &inactive, Password: &newPassword})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/users/me/", strings.NewReader(`{"name":"B"}`))
	req = req.WithContext(context.WithValue(req.Context(), UserContextKey, &stale))
	rec := httptest.NewRecorder()

	NewHandler(env.service, env.users).UpdateMe(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Name)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.CheckPassword(newPassword))
	assert.False(t, stored.CheckPassword(testPassword))
}
