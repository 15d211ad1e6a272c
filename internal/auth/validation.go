package auth

import (
	"net/mail"
	"strings"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
	maxEmailLength    = 254
)

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &FieldError{Field: "email", Err: ErrEmailRequired}
	}
	if len(email) > maxEmailLength {
		return &FieldError{Field: "email", Err: ErrInvalidEmailFormat}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &FieldError{Field: "email", Err: ErrInvalidEmailFormat}
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return &FieldError{Field: "password", Err: ErrPasswordRequired}
	case len(password) < minPasswordLength:
		return &FieldError{Field: "password", Err: ErrPasswordTooShort}
	case len(password) > maxPasswordLength:
		return &FieldError{Field: "password", Err: ErrPasswordTooLong}
	}
	return nil
}

func validateRegisterInput(in RegisterInput) error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return &FieldError{Field: "name", Err: ErrNameRequired}
	}
	return nil
}

// validateLoginInput checks the email format but only presence of the
// password, so accounts created under older password rules can still log in.
func validateLoginInput(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return &FieldError{Field: "password", Err: ErrPasswordRequired}
	}
	return nil
}
