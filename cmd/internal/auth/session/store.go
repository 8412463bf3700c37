package session

import (
	"context"
	"time"
)

// Store persists sessions and the owners they point at.
//
// Implementations are bound to an executor chosen by the caller: the pool for
// ad-hoc reads, or a transaction when several calls must land together.
// Every failure is a *StoreError.
type Store interface {
	// InsertSession creates a session row. A nil expiresAt means NewExpiry(now).
	InsertSession(ctx context.Context, ownerID string, userID *string, expiresAt *time.Time) (Claims, error)

	// SelectSession reports whether the session row still exists.
	SelectSession(ctx context.Context, id string) (Claims, bool, error)

	// Revoke deletes the session row and reports whether this call removed it.
	Revoke(ctx context.Context, c Claims) (bool, error)

	// CreateOwner creates an anonymous owner expiring at expiresAt.
	CreateOwner(ctx context.Context, expiresAt time.Time) (string, error)

	// SelectOwner returns ErrOwnerNotFound when the owner is gone.
	SelectOwner(ctx context.Context, ownerID string) (Owner, error)

	// DeleteOwnerIfAnonymous deletes c's owner when c is an anonymous session.
	// Owners linked to a user are never deleted. Owned rows cascade.
	DeleteOwnerIfAnonymous(ctx context.Context, c Claims) error

	// SweepExpired deletes expired owners, then expired sessions.
	SweepExpired(ctx context.Context) (SweepResult, error)
}

// Checker is the read side used by the middleware on every request.
type Checker interface {
	SelectSession(ctx context.Context, id string) (Claims, bool, error)
}

// Sweepable is the side used by the cleanup task.
type Sweepable interface {
	SweepExpired(ctx context.Context) (SweepResult, error)
}
