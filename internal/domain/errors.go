package domain

import "errors"

var (
	// ErrNotFound is returned when a trivia, question, user or attempt
	// does not exist, including malformed object ids.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when a role or ownership check fails.
	ErrForbidden = errors.New("operation not allowed")
	// ErrConflict is returned on a duplicate attempt submission or a
	// join-code collision that could not be resolved.
	ErrConflict = errors.New("conflicting state")
	// ErrInvalidInput is returned for malformed enums, missing fields
	// or out-of-range option indices.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when a trivia exists but is inactive.
	ErrUnavailable = errors.New("trivia not available")
	// ErrUnauthenticated is returned for missing or invalid credentials.
	ErrUnauthenticated = errors.New("authentication required")
)
