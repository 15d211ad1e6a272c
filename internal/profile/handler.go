package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/meditrack-api/internal/auth"
	"github.com/redmonkez12/meditrack-api/internal/httputil"
	"github.com/redmonkez12/meditrack-api/internal/logging"
	"github.com/redmonkez12/meditrack-api/internal/user"
)

const maxFieldLength = 255

// Store applies partial profile updates.
type Store interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, update user.ProfileUpdate) (*user.User, error)
}

// Handler serves the signed-in user's own profile. Both routes must be
// mounted behind auth.Authenticator.RequireAuth.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Get handles GET /users/me.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	authed, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "no token provided", httputil.CodeNoToken, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, authed.User().Public(), http.StatusOK)
}

// Update handles PATCH /users/me. Absent fields are left unchanged and an
// empty string clears an optional field.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	authed, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "no token provided", httputil.CodeNoToken, http.StatusUnauthorized)
		return
	}

	var update user.ProfileUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if update.IsEmpty() {
		httputil.RespondErrorWithCode(w, "no fields to update", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		httputil.RespondFieldError(w, "name", "name is required", httputil.CodeNameRequired)
		return
	}
	if field, ok := tooLong(update); ok {
		httputil.RespondFieldError(w, field, field+" is too long", httputil.CodeValidationFailed)
		return
	}

	updated, err := h.store.UpdateProfile(r.Context(), authed.UserID(), update)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// account removed while the token was still valid
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		logger.Error("failed to update profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated")
	httputil.RespondJSON(w, updated.Public(), http.StatusOK)
}

func tooLong(update user.ProfileUpdate) (string, bool) {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", update.Name},
		{"phone", update.Phone},
		{"address", update.Address},
		{"bloodType", update.BloodType},
		{"emergencyContact", update.EmergencyContact},
		{"dateOfBirth", update.DateOfBirth},
		{"gender", update.Gender},
	}

	for _, f := range fields {
		if f.value != nil && len(*f.value) > maxFieldLength {
			return f.name, true
		}
	}
	return "", false
}
