package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/handler/dto"
	"github.com/accountd/accountd/internal/model"
	"github.com/accountd/accountd/internal/service"
)

// AccountService is the business logic the user handlers depend on.
// Implemented by *service.AccountService.
type AccountService interface {
	Signup(ctx context.Context, input service.SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, identity *model.Identity) error
	UpdateProfile(ctx context.Context, email string, input service.UpdateProfileInput) (*model.User, error)
	DeleteAccount(ctx context.Context, email string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// UserHandler handles HTTP requests for account operations.
type UserHandler struct {
	svc    AccountService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc AccountService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Signup handles POST /api/users/signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if msg := validateSignup(&req); msg != "" {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	user, err := h.svc.Signup(r.Context(), service.SignupInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		PhoneNo:  req.PhoneNo,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_signed_up", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Logout handles POST /api/users/logout.
// Requires authentication; revokes the presented token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	if err := h.svc.Logout(r.Context(), identity); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_logged_out", "user_id", identity.User.ID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Successfully logged out"})
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ToUserResponse(identity.User))
}

// Update handles PATCH /api/users/me.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Name == nil && req.PhoneNo == nil && req.Password == nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "No fields to update")
		return
	}

	if req.Password != nil && len(*req.Password) < 8 {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Password must be at least 8 characters")
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), identity.User.Email, service.UpdateProfileInput{
		Name:     req.Name,
		PhoneNo:  req.PhoneNo,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_updated", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Delete handles DELETE /api/users/me.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	if err := h.svc.DeleteAccount(r.Context(), identity.User.Email); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", identity.User.ID)

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// validateSignup returns an empty string if the request is valid.
func validateSignup(req *dto.SignupRequest) string {
	switch {
	case strings.TrimSpace(req.Email) == "":
		return "Email is required"
	case !strings.Contains(req.Email, "@"):
		return "Email is not valid"
	case req.Password == "":
		return "Password is required"
	case len(req.Password) < 8:
		return "Password must be at least 8 characters"
	case strings.TrimSpace(req.Name) == "":
		return "Name is required"
	default:
		return ""
	}
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrEmailExists):
		h.writeError(w, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
	case errors.Is(err, service.ErrIncorrectPassword):
		h.writeError(w, http.StatusUnauthorized, "INCORRECT_PASSWORD", "Incorrect password")
	case errors.Is(err, service.ErrTokenIDMissing):
		h.writeError(w, http.StatusBadRequest, "TOKEN_ID_MISSING", "Token id not found")
	case errors.Is(err, service.ErrTokenRevoked):
		h.writeError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *UserHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
