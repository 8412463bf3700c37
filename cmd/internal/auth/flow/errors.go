package flow

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password. Both cases return this same error.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrOwnerGone is returned by AgentInfo when the caller's owner no longer exists.
var ErrOwnerGone = errors.New("owner not found")

// Kind classifies flow failures.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is the single error type returned by Service methods.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error returns the client-safe message for client kinds and the full
// chain for internal failures.
func (e *Error) Error() string {
	if e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) Code() string { return e.Kind.String() }

func internal(op string, err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: KindInternal, Op: op, Err: err}
}
