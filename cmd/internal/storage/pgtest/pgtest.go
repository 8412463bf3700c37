// Package pgtest gives integration tests a migrated Postgres schema of their own.
//
// Tests are opt-in: set LIFTLOG_DATABASE_URL to use an existing server, or
// LIFTLOG_TEST_CONTAINERS=1 to start a throwaway postgres:16-alpine container.
// Otherwise the calling test is skipped.
package pgtest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"
	"testing"
	"time"

	"liftlog/cmd/internal/storage/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	containerOnce sync.Once
	containerURL  string
	containerErr  error
)

// Pool returns a pool whose search_path is a fresh schema with every migration
// applied. The schema is dropped and the pool closed when t finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := databaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("pgtest: connect: %v", err)
	}
	t.Cleanup(admin.Close)

	if err := admin.Ping(ctx); err != nil {
		if os.Getenv("CI") == "" {
			t.Skipf("pgtest: postgres unreachable: %v", err)
		}
		t.Fatalf("pgtest: ping: %v", err)
	}

	schema := "t_" + randomSuffix(t)
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("pgtest: create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
	})

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("pgtest: parse url: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pgtest: open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	if err := migrations.Up(ctx, db); err != nil {
		t.Fatalf("pgtest: migrate: %v", err)
	}

	return pool
}

func databaseURL(t *testing.T) string {
	t.Helper()

	if url := os.Getenv("LIFTLOG_DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("LIFTLOG_TEST_CONTAINERS") != "1" {
		t.Skip("set LIFTLOG_DATABASE_URL or LIFTLOG_TEST_CONTAINERS=1 to run Postgres integration tests")
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		container, err := pgmodule.Run(ctx,
			"postgres:16-alpine",
			pgmodule.WithDatabase("liftlog_test"),
			pgmodule.WithUsername("test"),
			pgmodule.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			containerErr = err
			return
		}
		// The container is shared by every test in the binary and reaped by Ryuk.
		containerURL, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	if containerErr != nil {
		t.Skipf("pgtest: could not start postgres container: %v", containerErr)
	}
	return containerURL
}

func randomSuffix(t *testing.T) string {
	t.Helper()
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("pgtest: rand: %v", err)
	}
	return hex.EncodeToString(b)
}
