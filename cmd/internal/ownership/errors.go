package ownership

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotOwned is the sentinel behind every failed assertion.
var ErrNotOwned = errors.New("resource not owned")

// ErrUnknownTable is returned for a Table outside the known set.
var ErrUnknownTable = errors.New("unknown ownership table")

// Error is a failed ownership assertion. Its message is the
// same whether the id is missing or owned by someone else.
type Error struct {
	Table Table
}

func (e *Error) Error() string {
	return fmt.Sprintf("referenced %s are not available", e.Table)
}

func (e *Error) Unwrap() error { return ErrNotOwned }

func (e *Error) HTTPStatus() int { return http.StatusConflict }

func (e *Error) Code() string { return "conflict" }
