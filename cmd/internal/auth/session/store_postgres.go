package session

import (
	"context"
	"errors"
	"time"

	"liftlog/cmd/identity/ids"
	"liftlog/cmd/internal/dbx"

	"github.com/jackc/pgx/v5"
)

// PostgresStore implements Store over the owners and sessions tables.
type PostgresStore struct {
	q   dbx.Querier
	now func() time.Time
}

// NewPostgresStore binds a store to q (a pool or a pgx.Tx).
func NewPostgresStore(q dbx.Querier) *PostgresStore {
	return &PostgresStore{q: q, now: time.Now}
}

// WithNow returns a copy of s using now for generated expiries and ids.
func (s *PostgresStore) WithNow(now func() time.Time) *PostgresStore {
	cp := *s
	if now != nil {
		cp.now = now
	}
	return &cp
}

// InsertSession inserts a session row for ownerID.
func (s *PostgresStore) InsertSession(ctx context.Context, ownerID string, userID *string, expiresAt *time.Time) (Claims, error) {
	const op = "session.InsertSession"

	now := s.now()
	exp := NewExpiry(now)
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Claims{}, storeErr(op, err)
	}

	var c Claims
	err = s.q.QueryRow(ctx, `
		INSERT INTO sessions (id, owner_id, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, user_id, expires_at
	`, id, ownerID, userID, exp).Scan(&c.ID, &c.OwnerID, &c.UserID, &c.ExpiresAt)
	if err != nil {
		return Claims{}, storeErr(op, err)
	}
	c.ExpiresAt = c.ExpiresAt.UTC()
	return c, nil
}

// SelectSession loads a session row by id.
func (s *PostgresStore) SelectSession(ctx context.Context, id string) (Claims, bool, error) {
	var c Claims
	err := s.q.QueryRow(ctx, `
		SELECT id, owner_id, user_id, expires_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(&c.ID, &c.OwnerID, &c.UserID, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Claims{}, false, nil
	}
	if err != nil {
		return Claims{}, false, storeErr("session.SelectSession", err)
	}
	c.ExpiresAt = c.ExpiresAt.UTC()
	return c, true, nil
}

// Revoke deletes the session row by id.
func (s *PostgresStore) Revoke(ctx context.Context, c Claims) (bool, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, c.ID)
	if err != nil {
		return false, storeErr("session.Revoke", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateOwner inserts an anonymous owner.
func (s *PostgresStore) CreateOwner(ctx context.Context, expiresAt time.Time) (string, error) {
	const op = "session.CreateOwner"

	id, err := ids.NewULID(s.now())
	if err != nil {
		return "", storeErr(op, err)
	}
	if _, err := s.q.Exec(ctx, `INSERT INTO owners (id, expires_at) VALUES ($1, $2)`, id, expiresAt.UTC()); err != nil {
		return "", storeErr(op, err)
	}
	return id, nil
}

// SelectOwner loads an owner by id.
func (s *PostgresStore) SelectOwner(ctx context.Context, ownerID string) (Owner, error) {
	var o Owner
	err := s.q.QueryRow(ctx, `SELECT id, expires_at FROM owners WHERE id = $1`, ownerID).Scan(&o.ID, &o.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Owner{}, ErrOwnerNotFound
	}
	if err != nil {
		return Owner{}, storeErr("session.SelectOwner", err)
	}
	if o.ExpiresAt != nil {
		t := o.ExpiresAt.UTC()
		o.ExpiresAt = &t
	}
	return o, nil
}

// DeleteOwnerIfAnonymous removes the owner of an anonymous session.
func (s *PostgresStore) DeleteOwnerIfAnonymous(ctx context.Context, c Claims) error {
	if !c.Anonymous() {
		return nil
	}
	_, err := s.q.Exec(ctx, `
		DELETE FROM owners
		WHERE id = $1
		  AND expires_at IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM users WHERE owner_id = $1)
	`, c.OwnerID)
	return storeErr("session.DeleteOwnerIfAnonymous", err)
}

// SweepExpired deletes expired owners and sessions against the database clock.
func (s *PostgresStore) SweepExpired(ctx context.Context) (SweepResult, error) {
	const op = "session.SweepExpired"

	owners, err := s.q.Exec(ctx, `DELETE FROM owners WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return SweepResult{}, storeErr(op, err)
	}
	sessions, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return SweepResult{}, storeErr(op, err)
	}
	return SweepResult{Owners: owners.RowsAffected(), Sessions: sessions.RowsAffected()}, nil
}
