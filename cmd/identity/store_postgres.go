package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"liftlog/cmd/identity/ids"
	"liftlog/cmd/internal/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore implements Store over the owners/users tables.
// It is bound to a dbx.Querier, so the same type serves the pool and a transaction.
type PostgresStore struct {
	q dbx.Querier
}

// NewPostgresStore binds a store to q. The caller owns q's lifecycle.
func NewPostgresStore(q dbx.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

const userColumns = `id, username, password_hash, owner_id, created_at`

// UserByUsername loads a user by normalized username.
func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.UserByUsername"

	u, err := scanUser(s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		NormalizeUsername(username),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, err
}

// UserByOwner loads the user linked to ownerID.
func (s *PostgresStore) UserByOwner(ctx context.Context, ownerID string) (User, error) {
	const op = "identity.UserByOwner"

	u, err := scanUser(s.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE owner_id = $1`,
		ownerID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, err
}

// CreateUser inserts the permanent owner and then the user.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	username := NormalizeUsername(in.Username)
	if username == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "username is required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	ownerID, err := ids.NewULID(now)
	if err != nil {
		return User{}, err
	}
	userID, err := ids.NewULID(now)
	if err != nil {
		return User{}, err
	}

	if _, err := s.q.Exec(ctx, `INSERT INTO owners (id, expires_at) VALUES ($1, NULL)`, ownerID); err != nil {
		return User{}, err
	}

	_, err = s.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		userID, username, in.PasswordHash, ownerID, now,
	)
	if isUniqueViolation(err) {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	if err != nil {
		return User{}, err
	}

	return User{
		ID:           userID,
		Username:     username,
		PasswordHash: in.PasswordHash,
		OwnerID:      ownerID,
		CreatedAt:    now,
	}, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.OwnerID, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
