package auth

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	// ErrTokenInvalid covers every token rejection. Callers that need to tell
	// expiry or revocation apart can match the more specific errors below.
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: token has expired", ErrTokenInvalid)
	ErrTokenRevoked = fmt.Errorf("%w: token has been revoked", ErrTokenInvalid)
)

// Input validation errors. They are always wrapped in a *FieldError.
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", maxPasswordLength)
	ErrNameRequired       = errors.New("name is required")
)

// FieldError reports which input field failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
