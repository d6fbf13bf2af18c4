package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// As re-exports errors.As so callers of this package don't need both.
func As(err error, target any) bool { return errors.As(err, target) }

// Is re-exports errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// Map converts repo/infra errors into classified engine errors.
// Keeps the service layer clean by centralizing error translation.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ConstraintViolation("row already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return New(CodeTransient, "request timed out")

	case errors.Is(err, context.Canceled):
		return New(CodeTransient, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return New(CodeInternal, err.Error())
	}
}

// HTTPStatus maps a classified error to the status the transport layer
// should respond with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeConstraintViolation:
		return http.StatusConflict
	case CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
