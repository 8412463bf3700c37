package password

import "errors"

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")

	// ErrInvalidHash is returned by Verify for malformed or out-of-bounds hashes.
	ErrInvalidHash = errors.New("invalid password hash")

	// ErrConfig wraps every FromEnv failure.
	ErrConfig = errors.New("invalid password config")
)
