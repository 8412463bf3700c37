package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"liftlog/cmd/internal/httperr"
	"liftlog/cmd/internal/observability"
)

// Result is the outcome of resolving the request's session. Exactly one of
// Claims (when Err is nil) or Err is meaningful.
type Result struct {
	Claims Claims
	Err    error
}

type resultKey struct{}

// WithResult attaches r to ctx.
func WithResult(ctx context.Context, r Result) context.Context {
	return context.WithValue(ctx, resultKey{}, r)
}

// ResultFrom returns the Result attached by the middleware, if any.
func ResultFrom(ctx context.Context) (Result, bool) {
	r, ok := ctx.Value(resultKey{}).(Result)
	return r, ok
}

// Caller returns the authenticated caller's claims, or the error recorded by
// the middleware. Handlers that require identity call it and reject on error.
func Caller(ctx context.Context) (Claims, error) {
	r, ok := ResultFrom(ctx)
	if !ok {
		return Claims{}, &UnauthorizedError{Reason: ErrNoSession}
	}
	if r.Err != nil {
		return Claims{}, r.Err
	}
	return r.Claims, nil
}

// Middleware resolves the session cookie on every request and attaches the
// Result to the request context. It never rejects a request itself.
//
// Client-class failures (bad token, expired, revoked) clear the cookie.
// Server-class failures are logged once and leave the cookie alone.
func Middleware(codec *Codec, store Checker, cookies Cookies, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	res := &resolver{codec: codec, store: store, cookies: cookies, log: log}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := res.resolve(w, r)
			next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), result)))
		})
	}
}

type resolver struct {
	codec   *Codec
	store   Checker
	cookies Cookies
	log     *slog.Logger
}

func (m *resolver) resolve(w http.ResponseWriter, r *http.Request) Result {
	token, ok := m.cookies.Read(r)
	if !ok {
		return m.reject("none", &UnauthorizedError{Reason: ErrNoSession})
	}

	claims, err := m.codec.Decode(token)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) && de.ClientError() {
			m.cookies.Clear(w)
			m.log.Debug("session.decode.reject", "kind", de.Kind.String(), "err", err)
			return m.reject(de.Kind.String(), err)
		}
		he := httperr.From(err)
		he.LogOnce(m.log, "session.decode.fail", "path", r.URL.Path)
		return m.reject("error", he)
	}

	if claims.Expired(m.codec.now()) {
		m.cookies.Clear(w)
		return m.reject("expired", &UnauthorizedError{Reason: ErrSessionExpired})
	}

	_, found, err := m.store.SelectSession(r.Context(), claims.ID)
	if err != nil {
		he := httperr.From(err)
		he.LogOnce(m.log, "session.lookup.fail", "path", r.URL.Path, "session_id", claims.ID)
		return m.reject("error", he)
	}
	if !found {
		m.cookies.Clear(w)
		return m.reject("revoked", &UnauthorizedError{Reason: ErrSessionRevoked})
	}

	observability.SessionChecksTotal.WithLabelValues("ok").Inc()
	return Result{Claims: claims}
}

func (m *resolver) reject(result string, err error) Result {
	observability.SessionChecksTotal.WithLabelValues(result).Inc()
	return Result{Err: err}
}
