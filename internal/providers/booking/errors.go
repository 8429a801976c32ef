package booking

import (
	"fmt"

	"github.com/sandevgo/svim/internal/core"
)

// Error is a failed booking backend call. Kind is BACKEND_ERROR or INVALID_RESPONSE.
type Error struct {
	Kind    core.ErrorKind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) ErrorKind() core.ErrorKind {
	return e.Kind
}

func backendError(op string, status int, msg string, err error) *Error {
	return &Error{Kind: core.KindBackendError, Op: op, Status: status, Message: msg, Err: err}
}

func invalidResponse(op string, err error) *Error {
	return &Error{Kind: core.KindInvalidResponse, Op: op, Message: "INVALID_JSON_RESPONSE", Err: err}
}
