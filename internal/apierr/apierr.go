// Package apierr holds the fixed set of error kinds the server surfaces to
// clients, grounded on the teacher's own `{"error": {"message", "type"}}`
// response envelope (internal/server/gateway.go, internal/server/response.go)
// generalized to a typed Kind instead of the teacher's ad-hoc string literals.
package apierr

import (
	"fmt"
	"net/http"
)

// Kind is one of the seven error kinds spec.md §7 requires clients be able
// to distinguish.
type Kind string

const (
	BadRequest    Kind = "bad_request"
	Unauthorized  Kind = "unauthorized"
	ModelNotFound Kind = "model_not_found"
	ScriptTimeout Kind = "script_timeout"
	ScriptError   Kind = "script_error"
	ReloadFailed  Kind = "reload_failed"
	Internal      Kind = "internal_error"
)

// HTTPStatus is the status code each Kind maps to, per spec.md §7's table.
func (k Kind) HTTPStatus() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case ModelNotFound:
		return http.StatusNotFound
	case ScriptTimeout, ScriptError, Internal:
		return http.StatusInternalServerError
	case ReloadFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type every core package returns for a client-facing
// failure. Details carries the full validation-error list for ReloadFailed,
// per the "always a list" policy of spec.md §7; it is nil for every other
// kind.
type Error struct {
	Kind    Kind
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewWithDetails(kind Kind, message string, details []string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// As reports whether err itself is an *Error and, if so, returns it. It is a
// direct type assertion: an *Error wrapped inside another error is not
// unwrapped and yields false.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
