package session

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSession means the request carried no session cookie.
	ErrNoSession = errors.New("no session")

	// ErrSessionExpired means the token's expiry has passed.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionRevoked means the token verified but its row is gone.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrOwnerNotFound is returned by SelectOwner for a missing owner.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)

// DecodeKind classifies token decoding failures.
type DecodeKind int

const (
	// DecodeMalformed: structurally invalid or signature mismatch.
	DecodeMalformed DecodeKind = iota + 1
	// DecodeUnauthorized: well formed but not acceptable (expired, missing claim).
	DecodeUnauthorized
	// DecodeOther: anything unexpected.
	DecodeOther
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeMalformed:
		return "malformed"
	case DecodeUnauthorized:
		return "unauthorized"
	default:
		return "other"
	}
}

// DecodeError is returned by Codec.Decode.
type DecodeError struct {
	Kind DecodeKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("session token %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HTTPStatus maps Malformed to 400, Unauthorized to 401 and Other to 500.
func (e *DecodeError) HTTPStatus() int {
	switch e.Kind {
	case DecodeMalformed:
		return http.StatusBadRequest
	case DecodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (e *DecodeError) Code() string {
	switch e.Kind {
	case DecodeMalformed:
		return "malformed_token"
	case DecodeUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// ClientError reports whether the failure is the client's, i.e. whether the
// cookie carrying the token should be cleared.
func (e *DecodeError) ClientError() bool { return e.Kind != DecodeOther }

// UnauthorizedError rejects a request whose session cannot be used.
// Reason is ErrNoSession, ErrSessionExpired or ErrSessionRevoked.
type UnauthorizedError struct {
	Reason error
}

func (e *UnauthorizedError) Error() string { return e.Reason.Error() }

func (e *UnauthorizedError) Unwrap() error { return e.Reason }

func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }

func (e *UnauthorizedError) Code() string { return "unauthorized" }

// StoreError wraps a storage failure. It is always a server fault.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) HTTPStatus() int { return http.StatusInternalServerError }

func (e *StoreError) Code() string { return "internal" }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
