package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/krailo/recipe-api/internal/httputil"
	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/user"
	"github.com/krailo/recipe-api/internal/validation"
)

// RateLimiter guards the open endpoints; key is the client IP.
type RateLimiter interface {
	Allow(ctx context.Context, purpose, key string) (bool, error)
}

// Handler contains HTTP handlers for the account and token endpoints
type Handler struct {
	users       *user.Service
	tokens      *Service
	rateLimiter RateLimiter
	logger      *logging.Logger
}

func NewHandler(users *user.Service, tokens *Service, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		users:       users,
		tokens:      tokens,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// CreateUserRequest represents the account creation request body
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// TokenRequest represents the token issue request body
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token
type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ProfileResponse is the authenticated user's own profile
type ProfileResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpdateProfileRequest represents a partial profile update. Absent fields
// are left untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// CreateUser handles account creation
// @Summary      Create a new user
// @Description  Create a new user account with email, password and optional display name
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "Account details"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or duplicate email"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /user/create [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "create") {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create user request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, err := h.users.CreateUser(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			logger.Warn("user creation failed: validation error", "fields", verr.Error())
			httputil.RespondValidationError(w, verr.Fields)
			return
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("user creation failed: email already exists")
			httputil.RespondValidationError(w, map[string]string{
				"email": "a user with this email already exists",
			})
			return
		}
		logger.Error("user creation failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user created successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, UserResponse{
		ID:    newUser.ID,
		Email: newUser.Email,
		Name:  newUser.Name,
	}, http.StatusCreated)
}

// IssueToken handles token issuing
// @Summary      Issue an auth token
// @Description  Exchange email and password for an opaque bearer token. Reissuing returns the same token.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body TokenRequest true "Credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Bad credentials or request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /user/token [post]
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "token") {
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid token request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	key, err := h.tokens.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			logger.Warn("token issue failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "unable to authenticate with provided credentials", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		logger.Error("token issue failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to issue token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("token issued successfully")

	httputil.RespondJSON(w, TokenResponse{Token: key}, http.StatusOK)
}

// Me returns the authenticated user's profile
// @Summary      Get own profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /user/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{Email: u.Email, Name: u.Name}, http.StatusOK)
}

// UpdateMe applies a partial update to the authenticated user's profile
// @Summary      Update own profile
// @Description  Update display name and/or password. A new password is re-hashed before storage.
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to change"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /user/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), userID, user.UpdateParams{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			logger.Warn("profile update failed: validation error", "fields", verr.Error())
			httputil.RespondValidationError(w, verr.Fields)
			return
		}
		logger.Error("profile update failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated successfully")

	httputil.RespondJSON(w, ProfileResponse{Email: updated.Email, Name: updated.Name}, http.StatusOK)
}

// limitExceeded applies the rate limit for the given purpose. Limiter
// failures are logged and fail open.
func (h *Handler) limitExceeded(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	allowed, err := h.rateLimiter.Allow(r.Context(), purpose, ip)
	if err != nil {
		logger.Error("failed to check rate limit", "error", err.Error())
		return false
	}
	if !allowed {
		logger.Warn("rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}
	return false
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	// RemoteAddr format is "IP:port", extract just the IP
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
