package dbx

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeTx struct {
	pgx.Tx
	committed   bool
	rolledBack  bool
	rollbackErr error
}

func (t *fakeTx) Commit(context.Context) error { t.committed = true; return nil }

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	t.rollbackErr = ctx.Err()
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx_CommitOnSuccess(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	err := WithTx(context.Background(), b, func(context.Context, pgx.Tx) error { return nil })
	if err != nil {
		t.Fatalf("WithTx error: %v", err)
	}
	if !b.tx.committed || b.tx.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")

	err := WithTx(context.Background(), b, func(context.Context, pgx.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.tx.committed || !b.tx.rolledBack {
		t.Fatalf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestWithTx_RollbackSurvivesCancellation(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	ctx, cancel := context.WithCancel(context.Background())

	err := WithTx(ctx, b, func(ctx context.Context, _ pgx.Tx) error {
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !b.tx.rolledBack {
		t.Fatalf("expected rollback")
	}
	if b.tx.rollbackErr != nil {
		t.Fatalf("rollback ran with a cancelled context: %v", b.tx.rollbackErr)
	}
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic to propagate")
		}
		if !b.tx.rolledBack || b.tx.committed {
			t.Fatalf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
		}
	}()

	_ = WithTx(context.Background(), b, func(context.Context, pgx.Tx) error { panic("boom") })
}

func TestWithTx_BeginError(t *testing.T) {
	boom := errors.New("no conn")
	b := &fakeBeginner{err: boom}

	called := false
	err := WithTx(context.Background(), b, func(context.Context, pgx.Tx) error { called = true; return nil })
	if !errors.Is(err, boom) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}
