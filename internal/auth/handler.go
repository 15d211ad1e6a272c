package auth

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/redmonkez12/meditrack-api/internal/httputil"
	"github.com/redmonkez12/meditrack-api/internal/logging"
	"github.com/redmonkez12/meditrack-api/internal/user"
)

// RateLimiter throttles register and login attempts per client IP.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	Reset(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	logger      *logging.Logger
}

// NewHandler builds the auth handlers. rateLimiter may be nil to disable
// throttling.
func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	BloodType        string `json:"bloodType,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
	DateOfBirth      string `json:"dateOfBirth,omitempty"`
	Gender           string `json:"gender,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is a body carrying only a human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	ip := getClientIP(r)
	if h.limited(r.Context(), logger, ip, "register") {
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})
	h.record(r.Context(), logger, ip, "register")

	result, err := h.service.Register(r.Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Profile: user.Profile{
			Phone:            req.Phone,
			Address:          req.Address,
			BloodType:        req.BloodType,
			EmergencyContact: req.EmergencyContact,
			DateOfBirth:      req.DateOfBirth,
			Gender:           req.Gender,
		},
	})
	if err != nil {
		var fieldErr *FieldError
		switch {
		case errors.As(err, &fieldErr):
			respondFieldError(w, fieldErr)
		case errors.Is(err, ErrUserAlreadyExists):
			logger.Warn("registration failed: user already exists")
			httputil.RespondErrorWithCode(w, "user already exists", httputil.CodeUserAlreadyExists, http.StatusConflict)
		default:
			logger.Error("registration failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "registration failed", httputil.CodeRegistrationFailed, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", result.User.ID.String())
	httputil.RespondJSON(w, result, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	ip := getClientIP(r)
	if h.limited(r.Context(), logger, ip, "login") {
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})
	h.record(r.Context(), logger, ip, "login")

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var fieldErr *FieldError
		switch {
		case errors.As(err, &fieldErr):
			respondFieldError(w, fieldErr)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		default:
			logger.Error("login failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	h.reset(r.Context(), logger, ip, "login")

	logger.Info("user logged in", "user_id", result.User.ID.String())
	httputil.RespondJSON(w, result, http.StatusOK)
}

// Me handles GET /auth/me. It must be mounted behind RequireAuth.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authed, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "no token provided", httputil.CodeNoToken, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, authed.User().Public(), http.StatusOK)
}

// Logout handles POST /auth/logout. Without a revocation list the token
// stays valid until it expires and the client is expected to discard it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	authed, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "no token provided", httputil.CodeNoToken, http.StatusUnauthorized)
		return
	}

	if err := h.service.Revoke(r.Context(), authed.Token()); err != nil {
		logger.Error("failed to revoke token", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out", "revoked", h.service.RevocationEnabled())
	httputil.RespondJSON(w, MessageResponse{Message: "logged out"}, http.StatusOK)
}

// limited fails open: a limiter error never blocks a request.
func (h *Handler) limited(ctx context.Context, logger *logging.Logger, ip, purpose string) bool {
	if h.rateLimiter == nil {
		return false
	}

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(ctx, ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
	}
	return exceeded
}

func (h *Handler) record(ctx context.Context, logger *logging.Logger, ip, purpose string) {
	if h.rateLimiter == nil {
		return
	}
	if err := h.rateLimiter.RecordIPRequestWithPurpose(ctx, ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
}

// reset clears the counter once the client has proven its credentials.
func (h *Handler) reset(ctx context.Context, logger *logging.Logger, ip, purpose string) {
	if h.rateLimiter == nil {
		return
	}
	if err := h.rateLimiter.Reset(ctx, ip, purpose); err != nil {
		logger.Error("failed to reset IP rate limit", "error", err.Error())
	}
}

var fieldErrorCodes = map[error]string{
	ErrEmailRequired:      httputil.CodeEmailRequired,
	ErrInvalidEmailFormat: httputil.CodeInvalidEmailFormat,
	ErrPasswordRequired:   httputil.CodePasswordRequired,
	ErrPasswordTooShort:   httputil.CodePasswordTooShort,
	ErrPasswordTooLong:    httputil.CodePasswordTooLong,
	ErrNameRequired:       httputil.CodeNameRequired,
}

func respondFieldError(w http.ResponseWriter, fieldErr *FieldError) {
	code, ok := fieldErrorCodes[fieldErr.Err]
	if !ok {
		code = httputil.CodeValidationFailed
	}
	httputil.RespondFieldError(w, fieldErr.Field, fieldErr.Err.Error(), code)
}

// getClientIP expects chi's RealIP middleware to have already resolved
// proxy headers into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
