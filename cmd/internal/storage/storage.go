// Package storage selects and wraps the persistence backend.
//
// A Backend hands out stores bound either to an ad-hoc executor (the
// Backend itself) or to a transaction (the Tx passed to WithTx). Postgres is
// the production backend; Memory keeps the same transactional contract for
// local development and tests.
package storage

import (
	"context"

	"liftlog/cmd/identity"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/ownership"
)

// Tx exposes the stores bound to one executor.
type Tx interface {
	Sessions() session.Store
	Users() identity.Store
	Owned() ownership.Counter
}

// Backend is a Tx over the ad-hoc executor that can also open transactions.
type Backend interface {
	Tx

	// WithTx runs fn in a transaction: commit when fn returns nil, roll back
	// otherwise. Stores taken from the Backend itself must not be used
	// inside fn.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close()

	// Name identifies the backend in logs.
	Name() string
}
