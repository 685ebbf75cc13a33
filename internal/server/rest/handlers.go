package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server/access"
	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/metrics"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
	"github.com/dmitrijs2005/quizdeck/internal/server/services"
)

const maxBodyBytes = 1 << 20

// UserService is the part of services.UserService the handlers call.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Token, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error)
	SetActive(ctx context.Context, userID string, active bool) (*models.User, error)
}

type handlers struct {
	users   UserService
	logger  logging.Logger
	metrics *metrics.Metrics
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidRequestBody)
		return false
	}
	return true
}

func (h *handlers) healthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		h.metrics.Registration(metrics.OutcomeInvalid)
		return
	}

	user, err := h.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyRegistered):
			h.metrics.Registration(metrics.OutcomeDuplicate)
		case errors.Is(err, common.ErrorValidation):
			h.metrics.Registration(metrics.OutcomeInvalid)
		default:
			h.metrics.Registration(metrics.OutcomeError)
		}
		h.fail(w, r, err)
		return
	}

	h.metrics.Registration(metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, user.Public())
}

// login serves the password grant: form fields username and password.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidRequestBody)
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := h.users.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			h.metrics.Login(metrics.OutcomeInvalidCredentials)
		} else {
			h.metrics.Login(metrics.OutcomeError)
		}
		h.fail(w, r, err)
		return
	}

	h.metrics.Login(metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, token)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := access.ClaimsFromContext(ctx)
	if !ok {
		RespondGuardError(w, r, common.ErrUnauthenticated)
		return
	}

	if err := h.users.Logout(ctx, claims); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, ok := access.IdentityFromContext(r.Context())
	if !ok {
		RespondGuardError(w, r, common.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := access.IdentityFromContext(ctx)
	if !ok {
		RespondGuardError(w, r, common.ErrUnauthenticated)
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		// a wrong current password must not read as an expired session
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Incorrect password")
			return
		}
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) setRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (h *handlers) setActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusUnprocessableEntity, "is_active is required")
		return
	}

	user, err := h.users.SetActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !respondServiceError(w, err) {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
}
