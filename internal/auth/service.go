package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/meditrack-api/internal/logging"
	"github.com/redmonkez12/meditrack-api/internal/user"
)

// CredentialStore is everything the service needs from persistence.
// FindByEmail and FindByID return user.ErrNotFound for a missing row;
// Insert returns user.ErrDuplicateEmail when the email is taken.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	Insert(ctx context.Context, u *user.User) (*user.User, error)
}

// Notifier sends the welcome email after a successful registration.
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
}

// RegisterInput is the data accepted by Register.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Profile  user.Profile
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string          `json:"token"`
	User  user.PublicUser `json:"user"`
}

// Service handles registration, login and token resolution.
type Service struct {
	store    CredentialStore
	hasher   *PasswordHasher
	tokens   TokenCodec
	revoked  RevocationList
	notifier Notifier
	logger   *logging.Logger
	tokenTTL time.Duration
	now      func() time.Time

	pending sync.WaitGroup
}

// ServiceOption configures optional collaborators of Service.
type ServiceOption func(*Service)

// WithRevocationList enables server-side logout.
func WithRevocationList(list RevocationList) ServiceOption {
	return func(s *Service) {
		s.revoked = list
	}
}

// WithServiceClock sets the clock used to compute how long a revoked token
// stays blocked. It should match the token codec's clock.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifier enables welcome emails.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(
	store CredentialStore,
	hasher *PasswordHasher,
	tokens TokenCodec,
	logger *logging.Logger,
	tokenTTL time.Duration,
	opts ...ServiceOption,
) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	s := &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RevocationEnabled reports whether Revoke has any effect.
func (s *Service) RevocationEnabled() bool {
	return s.revoked != nil
}

// Register creates an account and returns a session token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	_, err := s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, ErrUserAlreadyExists
	case !errors.Is(err, user.ErrNotFound):
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password: %w", ErrRegistrationFailed, err)
	}

	created, err := s.store.Insert(ctx, &user.User{
		ID:               uuid.New(),
		Email:            in.Email,
		PasswordHash:     passwordHash,
		Name:             in.Name,
		Phone:            in.Profile.Phone,
		Address:          in.Profile.Address,
		BloodType:        in.Profile.BloodType,
		EmergencyContact: in.Profile.EmergencyContact,
		DateOfBirth:      in.Profile.DateOfBirth,
		Gender:           in.Profile.Gender,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			// lost the race against a concurrent registration
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	result, err := s.issue(created)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	if s.notifier != nil {
		s.pending.Add(1)
		go func(email, name string) {
			defer s.pending.Done()
			// detached from the request so a finished response does not cancel the send
			ctx := logging.WithLogger(context.Background(), s.logger)
			if err := s.notifier.SendWelcomeEmail(ctx, email, name); err != nil {
				s.logger.Warn("failed to send welcome email", "email", email, "error", err)
			}
		}(created.Email, created.Name)
	}

	return result, nil
}

// WaitForNotifications blocks until every welcome email started by Register
// has been handed to the notifier, or ctx is done.
func (s *Service) WaitForNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login checks the credentials and returns a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := validateLoginInput(email, password); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.burn(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(existing)
}

// ResolveFromToken returns the full user record behind a session token.
// The result includes the password hash and must not be sent to clients.
func (s *Service) ResolveFromToken(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	u, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// Revoke blocks a token until it expires. It is a no-op when no
// revocation list is configured.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if s.revoked == nil {
		return nil
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}

	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(s.now()))
}

func (s *Service) issue(u *user.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	}, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: u.Public()}, nil
}
