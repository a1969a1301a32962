package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		body    string
		wantErr bool
	}{
		{`{"email":"a@example.com"}`, false},
		{`{"email":"a@example.com"} {"x":1}`, true},
		{`{"email":`, true},
		{``, true},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		var v struct {
			Email string `json:"email"`
		}
		err := DecodeJSON(httptest.NewRecorder(), req, &v)
		if tc.wantErr {
			assert.Error(t, err, tc.body)
		} else {
			require.NoError(t, err, tc.body)
			assert.Equal(t, "a@example.com", v.Email)
		}
	}
}

func TestRespondValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	RespondValidationError(rec, req, map[string][]string{"email": {"This field is required."}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeValidationFailed, resp.Code)
	assert.Equal(t, []string{"This field is required."}, resp.Fields["email"])
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPost, "/users/me/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeMethodNotAllowed)
}
