package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/meditrack-api/internal/auth"
	"github.com/redmonkez12/meditrack-api/internal/httputil"
	"github.com/redmonkez12/meditrack-api/internal/user"
)

type resolverFunc func(ctx context.Context, token string) (*user.User, error)

func (f resolverFunc) ResolveFromToken(ctx context.Context, token string) (*user.User, error) {
	return f(ctx, token)
}

type fakeStore struct {
	current *user.User
	got     user.ProfileUpdate
	err     error
}

func (s *fakeStore) UpdateProfile(_ context.Context, id uuid.UUID, update user.ProfileUpdate) (*user.User, error) {
	s.got = update
	if s.err != nil {
		return nil, s.err
	}
	if id != s.current.ID {
		return nil, user.ErrNotFound
	}

	out := *s.current
	if update.Name != nil {
		out.Name = *update.Name
	}
	if update.Phone != nil {
		out.Phone = *update.Phone
	}
	if update.BloodType != nil {
		out.BloodType = *update.BloodType
	}
	return &out, nil
}

func newTestRouter(t *testing.T, store *fakeStore) http.Handler {
	t.Helper()

	authn := auth.NewAuthenticator(resolverFunc(func(_ context.Context, token string) (*user.User, error) {
		if token != "good" {
			return nil, auth.ErrTokenInvalid
		}
		u := *store.current
		return &u, nil
	}))
	h := NewHandler(store)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Use(authn.RequireAuth)
		r.Get("/me", h.Get)
		r.Patch("/me", h.Update)
	})
	return r
}

func newAna() *user.User {
	return &user.User{
		ID:           uuid.New(),
		Email:        "a@x.com",
		PasswordHash: "$2a$10$hash",
		Name:         "Ana",
		Phone:        "555-0100",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func do(h http.Handler, method, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/users/me", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Get(t *testing.T) {
	store := &fakeStore{current: newAna()}
	h := newTestRouter(t, store)

	rec := do(h, http.MethodGet, "", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$10$hash")

	var got user.PublicUser
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, store.current.ID, got.ID)
	assert.Equal(t, "555-0100", got.Phone)

	rec = do(h, http.MethodGet, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "", "bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	store := &fakeStore{current: newAna()}
	h := newTestRouter(t, store)

	rec := do(h, http.MethodPatch, `{"name":"Ana Maria","bloodType":"A-","phone":""}`, "good")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, store.got.Name)
	assert.Equal(t, "Ana Maria", *store.got.Name)
	require.NotNil(t, store.got.Phone)
	assert.Empty(t, *store.got.Phone)
	assert.Nil(t, store.got.Address)

	var got user.PublicUser
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "A-", got.BloodType)
	assert.Empty(t, got.Phone)
	assert.Equal(t, "a@x.com", got.Email)
}

func TestHandler_UpdateRejects(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"empty update", `{}`, httputil.CodeValidationFailed, ""},
		{"blank name", `{"name":"  "}`, httputil.CodeNameRequired, "name"},
		{"email is immutable", `{"email":"b@x.com"}`, httputil.CodeInvalidRequestBody, ""},
		{"too long", `{"address":"` + strings.Repeat("a", maxFieldLength+1) + `"}`, httputil.CodeValidationFailed, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{current: newAna()}
			h := newTestRouter(t, store)

			rec := do(h, http.MethodPatch, tt.body, "good")
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body httputil.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestHandler_UpdateStoreErrors(t *testing.T) {
	t.Run("user gone", func(t *testing.T) {
		store := &fakeStore{current: newAna(), err: user.ErrNotFound}
		rec := do(newTestRouter(t, store), http.MethodPatch, `{"name":"Ana Maria"}`, "good")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("database down", func(t *testing.T) {
		store := &fakeStore{current: newAna(), err: errors.New("connection reset")}
		rec := do(newTestRouter(t, store), http.MethodPatch, `{"name":"Ana Maria"}`, "good")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}
