// Package httperr is the HTTP boundary for liftlog's component errors.
//
// Component error types (session.DecodeError, flow.Error, ownership.Error, ...)
// implement Classified. From converts any error into an *Error exactly once;
// the *Error carries a log-once marker so a server fault that crosses several
// layers is logged a single time. Server faults never leak detail to clients.
package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Classified is implemented by component errors that know their HTTP status.
type Classified interface {
	HTTPStatus() int
	Code() string
}

// Error is an HTTP-ready error. Always handle it by pointer.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error

	logged atomic.Bool
}

// New builds an *Error. For server statuses msg is ignored on the wire.
func New(status int, code, msg string, err error) *Error {
	return &Error{Status: status, Code: code, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s: %v", e.Status, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Server reports whether e is a server-class (5xx) error.
func (e *Error) Server() bool { return e.Status >= http.StatusInternalServerError }

// Client reports whether e is a client-class (4xx) error.
func (e *Error) Client() bool {
	return e.Status >= http.StatusBadRequest && e.Status < http.StatusInternalServerError
}

// LogOnce logs a server-class error the first time it is called and reports
// whether it logged. Client errors are never logged here.
func (e *Error) LogOnce(log *slog.Logger, event string, args ...any) bool {
	if e == nil || log == nil || !e.Server() {
		return false
	}
	if !e.logged.CompareAndSwap(false, true) {
		return false
	}
	log.Error(event, append(args, "status", e.Status, "code", e.Code, "err", e.Err)...)
	return true
}

// From converts err into an *Error. An *Error anywhere in the chain is
// returned as is, keeping its log-once marker. Unclassified errors are 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var he *Error
	if errors.As(err, &he) {
		return he
	}

	var c Classified
	if errors.As(err, &c) {
		msg := err.Error()
		if ce, ok := c.(error); ok {
			msg = ce.Error()
		}
		return New(c.HTTPStatus(), c.Code(), msg, err)
	}

	return New(http.StatusInternalServerError, "internal", "", err)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// Write converts err with From, logs it once if it is a server fault and
// writes the JSON error envelope.
func Write(w http.ResponseWriter, log *slog.Logger, event string, err error) {
	he := From(err)
	if he == nil {
		he = New(http.StatusInternalServerError, "internal", "", errors.New("nil error written"))
	}
	he.LogOnce(log, event)

	msg := he.Message
	if he.Server() {
		msg = http.StatusText(he.Status)
	}
	WriteJSON(w, he.Status, errorResponse{Error: apiError{Code: he.Code, Message: msg}})
}

// WriteJSON writes v as a non-cacheable JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
