package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	ErrInvalidMFAToken     = errors.New("service: invalid mfa token")
	ErrInvalidRefreshToken = errors.New("service: invalid refresh token")
	ErrEmailTaken          = errors.New("service: email already registered")
	ErrAccountSuspended    = errors.New("service: account suspended")

	// ErrForbidden reports an ownership or role mismatch on an otherwise
	// valid request.
	ErrForbidden = errors.New("service: forbidden")

	ErrMFAAlreadyEnabled = errors.New("service: mfa already enabled")
	ErrMFANotConfigured  = errors.New("service: mfa not configured")
	ErrMFANotEnabled     = errors.New("service: mfa not enabled")
)

// ValidationError reports malformed or missing input. The reason is safe to
// echo to clients.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "service: " + e.Reason }

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
