package errcodes

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

// Conflict returns a 409 error for uniqueness and state conflicts.
func Conflict(msg string) error {
	return &Error{
		http.StatusConflict,
		msg,
		"conflict",
	}
}

// BadRequest returns a 400 error for business rule violations.
func BadRequest(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		"bad_request",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		"validation_error",
	}
}

func EmptyUpdate() error {
	return &Error{
		http.StatusBadRequest,
		"No fields provided for update.",
		"empty_update",
	}
}

func TooManyRequests() error {
	return &Error{
		http.StatusTooManyRequests,
		"Too many requests. Please slow down.",
		"too_many_requests",
	}
}

func Internal(msg string) error {
	return &Error{
		http.StatusInternalServerError,
		msg,
		"internal_error",
	}
}

// NotFoundf formats a resource description, e.g. NotFoundf("Book with ID %d", 7).
func NotFoundf(format string, args ...interface{}) error {
	return NotFound(fmt.Sprintf(format, args...))
}

// Lookup extracts an *Error from err's chain.
func Lookup(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps any error to a status code, defaulting to 500.
func HTTPStatus(err error) int {
	if e, ok := Lookup(err); ok {
		return e.HTTPCode
	}
	return http.StatusInternalServerError
}
