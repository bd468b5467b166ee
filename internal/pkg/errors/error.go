package xerrors

import (
	"errors"
	"fmt"
)

// Auth and session error taxonomy. Services only ever return these
// sentinels (possibly wrapped); handlers map them to HTTP outcomes.
var (
	ErrAlreadyBootstrapped = errors.New("system already bootstrapped")
	ErrSuperAdminExists    = errors.New("super admin already exists")
	ErrWeakPassword        = errors.New("password does not meet strength requirements")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingToken        = errors.New("missing refresh token")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrInvalidSession      = errors.New("invalid or expired session")
	ErrQueryFailed         = errors.New("database query failed")
	ErrTokenInvalid        = errors.New("invalid token")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
