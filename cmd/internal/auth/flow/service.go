// Package flow implements the login, anonymous login, logout and identity
// lookup flows. Each mutating flow runs in one storage transaction; cookies
// are written by the HTTP layer only after the transaction has committed.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"liftlog/cmd/identity"
	"liftlog/cmd/internal/auth/session"
	"liftlog/cmd/internal/observability"
	"liftlog/cmd/internal/storage"
)

// Authenticator checks credentials. *identity.Verifier satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, users identity.UserLookup, username, password string) (*identity.User, error)
}

// Issued is a freshly created session and its bearer token.
type Issued struct {
	Token  string
	Claims session.Claims
}

// LogoutResult tells the HTTP layer what happened.
type LogoutResult struct {
	// ClearCookie is false only when no cookie was presented.
	ClearCookie bool
	// Revoked reports whether this call removed the session row.
	Revoked bool
}

// AgentInfo describes the caller's identity.
type AgentInfo struct {
	OwnerID   string
	User      *identity.User
	ExpiresAt *time.Time
}

// Anonymous reports whether the caller has no linked user.
func (a AgentInfo) Anonymous() bool { return a.User == nil }

// Service orchestrates the auth flows.
type Service struct {
	backend storage.Backend
	codec   *session.Codec
	auth    Authenticator
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for new anonymous owners.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a Service.
func NewService(backend storage.Backend, codec *session.Codec, auth Authenticator, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{backend: backend, codec: codec, auth: auth, log: log, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Login authenticates username/password and issues a user session.
// presented is the caller's current token, if any: when it is a valid
// anonymous session, that anonymous identity is discarded.
func (s *Service) Login(ctx context.Context, username, password, presented string) (Issued, error) {
	const op = "flow.Login"

	var issued Issued
	err := s.backend.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		u, err := s.auth.Authenticate(ctx, tx.Users(), username, password)
		if err != nil {
			return internal(op, err)
		}
		if u == nil {
			return &Error{Kind: KindUnauthorized, Op: op, Err: ErrInvalidCredentials}
		}

		c, err := tx.Sessions().InsertSession(ctx, u.OwnerID, &u.ID, nil)
		if err != nil {
			return internal(op, err)
		}
		tok, err := s.codec.Encode(c)
		if err != nil {
			return internal(op, err)
		}

		if err := s.discardAnonymous(ctx, tx, presented); err != nil {
			return internal(op, err)
		}

		issued = Issued{Token: tok, Claims: c}
		return nil
	})
	if err != nil {
		observability.LoginsTotal.WithLabelValues("user", loginResult(err)).Inc()
		return Issued{}, internal(op, err)
	}

	observability.LoginsTotal.WithLabelValues("user", "ok").Inc()
	s.log.Info("auth.login.ok", "user_id", *issued.Claims.UserID, "session_id", issued.Claims.ID)
	return issued, nil
}

// Anonymous issues a session for a brand-new anonymous owner. A valid
// anonymous session presented by the caller is discarded first.
func (s *Service) Anonymous(ctx context.Context, presented string) (Issued, error) {
	const op = "flow.Anonymous"

	var issued Issued
	err := s.backend.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.discardAnonymous(ctx, tx, presented); err != nil {
			return internal(op, err)
		}

		exp := session.NewExpiry(s.now())
		ownerID, err := tx.Sessions().CreateOwner(ctx, exp)
		if err != nil {
			return internal(op, err)
		}
		c, err := tx.Sessions().InsertSession(ctx, ownerID, nil, &exp)
		if err != nil {
			return internal(op, err)
		}
		tok, err := s.codec.Encode(c)
		if err != nil {
			return internal(op, err)
		}

		issued = Issued{Token: tok, Claims: c}
		return nil
	})
	if err != nil {
		observability.LoginsTotal.WithLabelValues("anonymous", "error").Inc()
		return Issued{}, internal(op, err)
	}

	observability.LoginsTotal.WithLabelValues("anonymous", "ok").Inc()
	s.log.Info("auth.anonymous.ok", "owner_id", issued.Claims.OwnerID, "session_id", issued.Claims.ID)
	return issued, nil
}

// Logout revokes the presented session. The owner of an anonymous session
// is deleted only when this call is the one that removed the session row.
func (s *Service) Logout(ctx context.Context, presented string) (LogoutResult, error) {
	const op = "flow.Logout"

	if presented == "" {
		observability.LogoutsTotal.WithLabelValues("noop").Inc()
		return LogoutResult{}, nil
	}

	c, err := s.codec.Decode(presented)
	if err != nil {
		s.logDecodeFailure(op, err)
		observability.LogoutsTotal.WithLabelValues("undecodable").Inc()
		return LogoutResult{ClearCookie: true}, nil
	}

	var removed bool
	err = s.backend.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		removed, err = tx.Sessions().Revoke(ctx, c)
		if err != nil {
			return internal(op, err)
		}
		if !removed {
			return nil
		}
		if err := tx.Sessions().DeleteOwnerIfAnonymous(ctx, c); err != nil {
			return internal(op, err)
		}
		return nil
	})
	if err != nil {
		observability.LogoutsTotal.WithLabelValues("error").Inc()
		return LogoutResult{}, internal(op, err)
	}

	result := "already_revoked"
	if removed {
		result = "revoked"
	}
	observability.LogoutsTotal.WithLabelValues(result).Inc()
	s.log.Info("auth.logout.ok", "session_id", c.ID, "revoked", removed, "anonymous", c.Anonymous())
	return LogoutResult{ClearCookie: true, Revoked: removed}, nil
}

// AgentInfo looks up the identity behind ownerID using the ad-hoc executor.
func (s *Service) AgentInfo(ctx context.Context, ownerID string) (AgentInfo, error) {
	const op = "flow.AgentInfo"

	u, err := s.backend.Users().UserByOwner(ctx, ownerID)
	switch {
	case err == nil:
		return AgentInfo{OwnerID: ownerID, User: &u}, nil
	case !identity.IsNotFound(err):
		return AgentInfo{}, internal(op, err)
	}

	o, err := s.backend.Sessions().SelectOwner(ctx, ownerID)
	if errors.Is(err, session.ErrOwnerNotFound) {
		return AgentInfo{}, &Error{Kind: KindNotFound, Op: op, Err: ErrOwnerGone}
	}
	if err != nil {
		return AgentInfo{}, internal(op, err)
	}
	return AgentInfo{OwnerID: o.ID, ExpiresAt: o.ExpiresAt}, nil
}

// discardAnonymous revokes a presented anonymous session and deletes its
// owner. Anything that does not decode, or is not anonymous, is left alone.
func (s *Service) discardAnonymous(ctx context.Context, tx storage.Tx, presented string) error {
	if presented == "" {
		return nil
	}
	prev, err := s.codec.Decode(presented)
	if err != nil {
		s.logDecodeFailure("flow.discardAnonymous", err)
		return nil
	}
	if !prev.Anonymous() {
		return nil
	}

	removed, err := tx.Sessions().Revoke(ctx, prev)
	if err != nil || !removed {
		return err
	}
	return tx.Sessions().DeleteOwnerIfAnonymous(ctx, prev)
}

func (s *Service) logDecodeFailure(op string, err error) {
	var de *session.DecodeError
	if errors.As(err, &de) && de.ClientError() {
		s.log.Debug("auth.token.ignored", "op", op, "kind", de.Kind.String())
		return
	}
	s.log.Error("auth.token.decode.fail", "op", op, "err", err)
}

func loginResult(err error) string {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == KindUnauthorized {
		return "fail"
	}
	return "error"
}
