package identity

import (
	"context"
	"time"
)

// User is a persistent credential holder. Every user owns exactly one
// permanent (non-expiring) owner that its resources hang off.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	OwnerID      string
	CreatedAt    time.Time
}

// CreateUserInput describes a new user. PasswordHash is already encoded.
type CreateUserInput struct {
	Username     string
	PasswordHash string
	Now          time.Time
}

// UserLookup is the read side used by the credential verifier.
type UserLookup interface {
	// UserByUsername returns ErrNotFound (as NotFoundError) when no user matches.
	UserByUsername(ctx context.Context, username string) (User, error)
}

// Store is the identity persistence boundary.
type Store interface {
	UserLookup

	// UserByOwner returns the user linked to ownerID, or ErrNotFound.
	UserByOwner(ctx context.Context, ownerID string) (User, error)

	// CreateUser inserts a permanent owner and the user linked to it.
	// Callers run it inside a transaction so both rows land together.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
}
