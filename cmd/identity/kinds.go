package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")

	// ErrCorruptHash marks a stored password hash that cannot be verified.
	ErrCorruptHash = errors.New("corrupt_password_hash")
)
