package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/storage"
	"liftlog/cmd/internal/storage/pgtest"
)

func TestPostgres_WithTxRollsBack(t *testing.T) {
	pool := pgtest.Pool(t)
	b := storage.NewPostgres(pool)
	ctx := context.Background()
	boom := errors.New("boom")

	var ownerID string
	err := b.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		ownerID, err = tx.Sessions().CreateOwner(ctx, session.NewExpiry(time.Now()))
		if err != nil {
			return err
		}
		if _, err := tx.Sessions().InsertSession(ctx, ownerID, nil, nil); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := b.Sessions().SelectOwner(ctx, ownerID); !errors.Is(err, session.ErrOwnerNotFound) {
		t.Fatalf("rolled back owner is visible: %v", err)
	}
}

func TestPostgres_WithTxCommits(t *testing.T) {
	pool := pgtest.Pool(t)
	b := storage.NewPostgres(pool)
	ctx := context.Background()

	var c session.Claims
	err := b.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		ownerID, err := tx.Sessions().CreateOwner(ctx, session.NewExpiry(time.Now()))
		if err != nil {
			return err
		}
		c, err = tx.Sessions().InsertSession(ctx, ownerID, nil, nil)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	if _, found, err := b.Sessions().SelectSession(ctx, c.ID); err != nil || !found {
		t.Fatalf("committed session missing: found=%v err=%v", found, err)
	}
	if err := b.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
