// Package apperrors defines the failure taxonomy shared by services and handlers.
package apperrors

import "errors"

var (
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateMember is returned when a user already holds a membership
	// in the project.
	ErrDuplicateMember = errors.New("user is already a project member")
	// ErrNotFound is returned when a user, session, project or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when a password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a bearer token is missing, malformed, expired
	// or cryptographically invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionRevoked is returned when a token references a session that no longer exists.
	ErrSessionRevoked = errors.New("session is no longer valid")
	// ErrForbidden is returned when a role or ownership check fails.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned when a request fails input validation.
	ErrValidation = errors.New("validation failed")
)
