package users

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidEmail is returned for a missing or malformed email
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrMissingPassword is returned when the password is empty
	ErrMissingPassword = errors.New("password is required")

	// ErrInvalidRole is returned for unknown or self-assignable-doctor roles
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidCredentials is returned on failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount is returned when a deactivated doctor logs in
	ErrInactiveAccount = errors.New("account is inactive")
)
