package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/meditrack-api/internal/httputil"
	"github.com/redmonkez12/meditrack-api/internal/logging"
	"github.com/redmonkez12/meditrack-api/internal/user"
)

// TokenResolver turns a bearer token into the user it was issued for.
type TokenResolver interface {
	ResolveFromToken(ctx context.Context, token string) (*user.User, error)
}

// AuthenticatedRequest is a request whose bearer token has been resolved to
// a user. It can only be obtained from an Authenticator.
type AuthenticatedRequest struct {
	request *http.Request
	user    *user.User
	token   string
}

func (a *AuthenticatedRequest) Request() *http.Request { return a.request }
func (a *AuthenticatedRequest) User() *user.User       { return a.user }
func (a *AuthenticatedRequest) UserID() uuid.UUID      { return a.user.ID }
func (a *AuthenticatedRequest) Token() string          { return a.token }

// Rejection describes why a request was not authenticated. Err holds the
// underlying cause for logs and is never sent to the client.
type Rejection struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return r.Message + ": " + r.Err.Error()
	}
	return r.Message
}

// Authenticator gates protected routes on a valid bearer token.
type Authenticator struct {
	resolver TokenResolver
}

func NewAuthenticator(resolver TokenResolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// Authenticate resolves the bearer token on r. Exactly one of the results is
// non-nil. Invalid, expired and revoked tokens as well as deleted accounts
// all produce the same rejection.
func (a *Authenticator) Authenticate(r *http.Request) (*AuthenticatedRequest, *Rejection) {
	token := bearerToken(r)
	if token == "" {
		return nil, &Rejection{
			Status:  http.StatusUnauthorized,
			Code:    httputil.CodeNoToken,
			Message: "no token provided",
		}
	}

	u, err := a.resolver.ResolveFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrUserNotFound) {
			return nil, &Rejection{
				Status:  http.StatusUnauthorized,
				Code:    httputil.CodeInvalidToken,
				Message: "invalid token",
				Err:     err,
			}
		}
		return nil, &Rejection{
			Status:  http.StatusInternalServerError,
			Code:    httputil.CodeInternalError,
			Message: "internal server error",
			Err:     err,
		}
	}

	return &AuthenticatedRequest{request: r, user: u, token: token}, nil
}

type authKey struct{}

// RequireAuth rejects unauthenticated requests and stores the
// AuthenticatedRequest in the context of the ones it lets through.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		authed, rejection := a.Authenticate(r)
		if rejection != nil {
			if rejection.Status >= http.StatusInternalServerError {
				logger.Error("failed to authenticate request", "error", rejection.Error())
			} else {
				logger.Debug("request rejected", "code", rejection.Code, "reason", rejection.Error())
			}
			httputil.RespondErrorWithCode(w, rejection.Message, rejection.Code, rejection.Status)
			return
		}

		ctx := context.WithValue(r.Context(), authKey{}, authed)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{
			"user_id": authed.UserID().String(),
		}))
		authed.request = r.WithContext(ctx)

		next.ServeHTTP(w, authed.request)
	})
}

// FromContext returns the AuthenticatedRequest stored by RequireAuth.
func FromContext(ctx context.Context) (*AuthenticatedRequest, bool) {
	authed, ok := ctx.Value(authKey{}).(*AuthenticatedRequest)
	return authed, ok
}

// bearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
