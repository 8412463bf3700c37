package identity

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// PasswordVerifier compares a password against an encoded hash.
// password.Config satisfies it.
type PasswordVerifier interface {
	Verify(encodedHash, password string) (bool, error)
}

// Verifier checks username/password pairs.
//
// Hash comparison is CPU bound, so it runs on its own goroutine with at most
// a fixed number in flight. Waiting for a slot honours ctx; once a comparison
// has started it always runs to completion, even if the caller gives up.
type Verifier struct {
	hashes    PasswordVerifier
	slots     *semaphore.Weighted
	dummyHash string
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithConcurrency caps concurrent hash comparisons (default GOMAXPROCS).
func WithConcurrency(n int64) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.slots = semaphore.NewWeighted(n)
		}
	}
}

// WithDummyHash sets a hash compared against when the username is unknown,
// so both failure paths cost the same.
func WithDummyHash(h string) VerifierOption {
	return func(v *Verifier) { v.dummyHash = h }
}

// NewVerifier constructs a Verifier around hashes.
func NewVerifier(hashes PasswordVerifier, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		hashes: hashes,
		slots:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Authenticate returns the matching user, or nil when the username is unknown
// or the password is wrong. Those two cases are indistinguishable to callers.
// A stored hash that cannot be parsed yields an ErrCorruptHash OpError.
func (v *Verifier) Authenticate(ctx context.Context, users UserLookup, username, password string) (*User, error) {
	u, err := users.UserByUsername(ctx, username)
	if IsNotFound(err) {
		if v.dummyHash != "" {
			_, _ = v.compare(ctx, v.dummyHash, password)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ok, err := v.compare(ctx, u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type compareResult struct {
	ok  bool
	err error
}

func (v *Verifier) compare(ctx context.Context, hash, password string) (bool, error) {
	if err := v.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}

	done := make(chan compareResult, 1)
	go func() {
		defer v.slots.Release(1)
		ok, err := v.hashes.Verify(hash, password)
		done <- compareResult{ok: ok, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return false, OpError{Op: "identity.Authenticate", Kind: ErrCorruptHash, Msg: r.err.Error()}
		}
		return r.ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
