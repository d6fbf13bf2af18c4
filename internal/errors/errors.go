package errors

import "fmt"

// Code classifies engine errors the way callers need to react to them.
type Code string

const (
	// CodeNotFound — requester or target user missing. Fatal for the call,
	// surfaced to the caller, not retried.
	CodeNotFound Code = "not_found"

	// CodeInvalidArgument — malformed input (bad ids, bad cursor, bad limits).
	CodeInvalidArgument Code = "invalid_argument"

	// CodeConstraintViolation — duplicate directed like or duplicate match.
	// Services catch this and treat the state as already reached; it only
	// escapes when a handler genuinely has nothing to fall back to.
	CodeConstraintViolation Code = "constraint_violation"

	// CodeTransient — connection/timeout trouble from the storage layer.
	// Safe to retry the whole operation: every engine operation is
	// idempotent or conflict-safe at the storage layer.
	CodeTransient Code = "transient"

	// CodeInternal — everything else.
	CodeInternal Code = "internal"
)

// Error is the engine's error type: a code for the caller plus a message
// for the log line.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// New builds an Error with an arbitrary code.
func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

// NotFound creates a not-found error.
func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }

// InvalidArgument creates a bad-input error. Use in the service layer for
// input validation failures.
func InvalidArgument(msg string) *Error { return &Error{Code: CodeInvalidArgument, Message: msg} }

// ConstraintViolation creates an already-in-desired-state error.
func ConstraintViolation(msg string) *Error {
	return &Error{Code: CodeConstraintViolation, Message: msg}
}

// CodeOf extracts the classification from any error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
