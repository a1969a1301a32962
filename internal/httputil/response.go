package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/redmonkez12/accounts-api/internal/logging"
)

// maxBodyBytes caps request bodies accepted by DecodeJSON
const maxBodyBytes = 1 << 20

// ErrorResponse represents a standard error response.
// Fields carries per-field validation messages.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, r *http.Request, message, code string, statusCode int) {
	RespondJSON(w, r, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondValidationError sends a 400 listing the failing fields
func RespondValidationError(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	RespondJSON(w, r, ErrorResponse{
		Error:  "invalid input",
		Code:   CodeValidationFailed,
		Fields: fields,
	}, http.StatusBadRequest)
}

// DecodeJSON reads a JSON body into v, rejecting oversized or trailing data
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode body: unexpected data after JSON object")
	}
	return nil
}

// MethodNotAllowed is the router fallback for known paths hit with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RespondErrorWithCode(w, r, fmt.Sprintf("method %q not allowed", r.Method), CodeMethodNotAllowed, http.StatusMethodNotAllowed)
}

// NotFound is the router fallback for unknown paths
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondErrorWithCode(w, r, "not found", CodeNotFound, http.StatusNotFound)
}
