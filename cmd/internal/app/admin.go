package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"liftlog/cmd/identity"
	"liftlog/cmd/internal/storage"
	"liftlog/cmd/security/password"

	"golang.org/x/term"
)

// ErrNoDatabase is returned by admin commands when no database is configured.
var ErrNoDatabase = errors.New("LIFTLOG_DATABASE_URL is required")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isInteractive reports whether stdin is a terminal.
var isInteractive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func migrate(ctx context.Context, cfg Config) error {
	if cfg.DatabaseURL == "" {
		return ErrNoDatabase
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	pool, err := storage.OpenPool(ctx, cfg.DatabaseURL, storage.PoolOptions{MaxConns: 1})
	if err != nil {
		return fmt.Errorf("migrate: open db: %w", err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("db.migrated")
	return nil
}

func userAdd(ctx context.Context, cfg Config, username string, stdin io.Reader, stdout io.Writer) error {
	if cfg.DatabaseURL == "" {
		return ErrNoDatabase
	}
	cfg.LogLevel = "warn"
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	u, err := createUser(ctx, backend, username, stdin, stdout)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "created user %s (id %s, owner %s)\n", u.Username, u.ID, u.OwnerID)
	return err
}

// createUser reads and validates a password, hashes it and stores the user
// together with its permanent owner in one transaction.
func createUser(ctx context.Context, backend storage.Backend, username string, stdin io.Reader, stdout io.Writer) (identity.User, error) {
	username = identity.NormalizeUsername(username)
	if username == "" {
		return identity.User{}, ErrUsage
	}

	pw, err := password.FromEnv()
	if err != nil {
		return identity.User{}, err
	}

	plain, err := obtainPassword(stdin, stdout)
	if err != nil {
		return identity.User{}, err
	}
	if err := pw.Validate(plain); err != nil {
		return identity.User{}, err
	}
	hash, err := pw.Hash(plain)
	if err != nil {
		return identity.User{}, err
	}

	var u identity.User
	err = backend.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		u, err = tx.Users().CreateUser(ctx, identity.CreateUserInput{Username: username, PasswordHash: hash})
		return err
	})
	return u, err
}

// obtainPassword takes LIFTLOG_USERADD_PASSWORD when set, prompts twice on a
// terminal, and otherwise reads one line from stdin.
func obtainPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	if v, ok := os.LookupEnv("LIFTLOG_USERADD_PASSWORD"); ok {
		return v, nil
	}

	if !isInteractive() {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := promptPassword(stdout, "Password: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword(stdout, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
