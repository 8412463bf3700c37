package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"liftlog/cmd/identity"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/storage/pgtest"
)

func TestPostgresStore_SessionLifecycle(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	s := session.NewPostgresStore(pool)

	exp := session.NewExpiry(time.Now())
	ownerID, err := s.CreateOwner(ctx, exp)
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}

	c, err := s.InsertSession(ctx, ownerID, nil, nil)
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	if c.ID == "" || c.OwnerID != ownerID || !c.Anonymous() {
		t.Fatalf("unexpected claims: %+v", c)
	}

	got, found, err := s.SelectSession(ctx, c.ID)
	if err != nil || !found {
		t.Fatalf("SelectSession found=%v err=%v", found, err)
	}
	if !got.ExpiresAt.Equal(c.ExpiresAt) {
		t.Fatalf("expiry %v != %v", got.ExpiresAt, c.ExpiresAt)
	}

	removed, err := s.Revoke(ctx, c)
	if err != nil || !removed {
		t.Fatalf("Revoke removed=%v err=%v", removed, err)
	}
	removed, err = s.Revoke(ctx, c)
	if err != nil || removed {
		t.Fatalf("second Revoke removed=%v err=%v", removed, err)
	}

	if _, found, _ := s.SelectSession(ctx, c.ID); found {
		t.Fatalf("revoked session still present")
	}
}

func TestPostgresStore_DeleteOwnerIfAnonymous(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	s := session.NewPostgresStore(pool)

	ownerID, err := s.CreateOwner(ctx, session.NewExpiry(time.Now()))
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	c, err := s.InsertSession(ctx, ownerID, nil, nil)
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO profiles (owner_id) VALUES ($1)`, ownerID); err != nil {
		t.Fatalf("insert profile: %v", err)
	}

	if err := s.DeleteOwnerIfAnonymous(ctx, c); err != nil {
		t.Fatalf("DeleteOwnerIfAnonymous: %v", err)
	}
	if _, err := s.SelectOwner(ctx, ownerID); !errors.Is(err, session.ErrOwnerNotFound) {
		t.Fatalf("expected owner gone, got %v", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM profiles WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("owned rows did not cascade: %d left", n)
	}
}

func TestPostgresStore_UserOwnerIsNeverDeleted(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	s := session.NewPostgresStore(pool)

	u, err := identity.NewPostgresStore(pool).CreateUser(ctx, identity.CreateUserInput{Username: "alice", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	c, err := s.InsertSession(ctx, u.OwnerID, &u.ID, nil)
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	if err := s.DeleteOwnerIfAnonymous(ctx, c); err != nil {
		t.Fatalf("DeleteOwnerIfAnonymous: %v", err)
	}

	// Even a claims value forged to look anonymous must not remove a user's owner.
	forged := c
	forged.UserID = nil
	if err := s.DeleteOwnerIfAnonymous(ctx, forged); err != nil {
		t.Fatalf("DeleteOwnerIfAnonymous: %v", err)
	}

	o, err := s.SelectOwner(ctx, u.OwnerID)
	if err != nil {
		t.Fatalf("SelectOwner: %v", err)
	}
	if o.Anonymous() {
		t.Fatalf("user owner must not expire")
	}
}

func TestPostgresStore_SweepExpired(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	s := session.NewPostgresStore(pool)

	past := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	future := session.NewExpiry(time.Now())

	expiredOwner, err := s.CreateOwner(ctx, past)
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	liveOwner, err := s.CreateOwner(ctx, future)
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	if _, err := s.InsertSession(ctx, liveOwner, nil, &past); err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	live, err := s.InsertSession(ctx, liveOwner, nil, nil)
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}

	res, err := s.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if res.Owners != 1 || res.Sessions != 1 {
		t.Fatalf("first sweep = %+v", res)
	}

	res, err = s.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if res != (session.SweepResult{}) {
		t.Fatalf("second sweep should be a no-op, got %+v", res)
	}

	if _, err := s.SelectOwner(ctx, expiredOwner); !errors.Is(err, session.ErrOwnerNotFound) {
		t.Fatalf("expired owner survived: %v", err)
	}
	if _, found, _ := s.SelectSession(ctx, live.ID); !found {
		t.Fatalf("live session was swept")
	}
}
