package auth

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/accounts-api/internal/httputil"
	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/metrics"
	"github.com/redmonkez12/accounts-api/internal/user"
)

const msgUnableToAuthenticate = "Unable to authenticate with provided credentials."

// Handler contains HTTP handlers for the account endpoints
type Handler struct {
	service *Service
	users   *user.Store
}

func NewHandler(service *Service, users *user.Store) *Handler {
	return &Handler{
		service: service,
		users:   users,
	}
}

// CreateUserRequest represents the registration request body
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// TokenRequest represents the token request body
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateMeRequest represents a partial profile update; omitted fields are kept
type UpdateMeRequest struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenResponse carries an issued token key
type TokenResponse struct {
	Token string `json:"token"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}

// CreateUser handles registration
// @Summary      Register a new user
// @Description  Create an account from email, password and an optional name
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "Registration data"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/ [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := user.ValidateRegistration(req.Email, req.Password, req.Name); err != nil {
		logger.Warn("registration failed: validation error", "error", err.Error())
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		respondUserError(w, r, err)
		return
	}

	newUser, err := h.users.Create(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		respondUserError(w, r, err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, r, newUserResponse(newUser), http.StatusCreated)
}

// ObtainToken exchanges credentials for the caller's token
// @Summary      Obtain an auth token
// @Description  Returns the caller's token, creating it on first login. Repeated calls return the same key.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body TokenRequest true "Login credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Unable to authenticate"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/token/ [post]
func (h *Handler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req TokenRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid token request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("token request failed: invalid credentials")
			httputil.RespondErrorWithCode(w, r, msgUnableToAuthenticate, httputil.CodeAuthorization, http.StatusBadRequest)
			return
		}
		logger.Error("token request failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "failed to issue token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("token issued", "user_id", token.UserID)

	httputil.RespondJSON(w, r, TokenResponse{Token: token.Key}, http.StatusOK)
}

// GetMe returns the authenticated user's profile
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     TokenAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Router       /users/me/ [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, ok := GetUserFromContext(r.Context())
	if !ok {
		unauthorized(w, r, msgMissingAuth, httputil.CodeMissingAuth)
		return
	}

	httputil.RespondJSON(w, r, newUserResponse(u), http.StatusOK)
}

// UpdateMe applies a partial update to the authenticated user's profile
// @Summary      Update current user
// @Description  Change name, email or password. A new password is hashed before it is stored.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        request body UpdateMeRequest true "Fields to change"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/me/ [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := GetUserFromContext(r.Context())
	if !ok {
		unauthorized(w, r, msgMissingAuth, httputil.CodeMissingAuth)
		return
	}

	var req UpdateMeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := user.ValidateProfileUpdate(req.Email, req.Name, req.Password); err != nil {
		logger.Warn("profile update failed: validation error", "error", err.Error())
		respondUserError(w, r, err)
		return
	}

	updated, err := h.users.Update(r.Context(), current.ID, user.UpdateParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondUserError(w, r, err)
		return
	}

	logger.Info("profile updated", "password_changed", req.Password != nil)

	httputil.RespondJSON(w, r, newUserResponse(updated), http.StatusOK)
}

// respondUserError maps user store errors onto HTTP responses
func respondUserError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *user.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.RespondValidationError(w, r, verr.Fields)
	case errors.Is(err, user.ErrDuplicateEmail):
		httputil.RespondValidationError(w, r, map[string][]string{
			"email": {user.MsgDuplicateMail},
		})
	case errors.Is(err, user.ErrNotFound):
		unauthorized(w, r, msgInvalidToken, httputil.CodeInvalidToken)
	default:
		logging.GetLoggerFromContext(r.Context()).Error("user operation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, r, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
