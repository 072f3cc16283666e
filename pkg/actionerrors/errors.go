// Package actionerrors defines the typed error taxonomy surfaced by the
// maintenance action scheduler.
package actionerrors

import "fmt"

// Code identifies the category of failure. Values are stable and safe to
// compare across the admission/execution boundary.
type Code int

const (
	// CodeOK means no error occurred. It is the zero value of Code and the
	// value a successful Action.Result carries.
	CodeOK Code = iota
	// CodeBadParameter marks a malformed or missing description field, or
	// an unknown plugin name.
	CodeBadParameter
	// CodeTaskDuplicate marks an admission that collided with a
	// non-terminal action of the same identity.
	CodeTaskDuplicate
	// CodeActionFailed marks a plugin step that set a non-zero result.
	CodeActionFailed
	// CodeInternalError marks a plugin step that terminated abnormally.
	CodeInternalError
	// CodeShuttingDown marks an admission rejected because the scheduler
	// has begun shutdown.
	CodeShuttingDown
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeBadParameter:
		return "BAD_PARAMETER"
	case CodeTaskDuplicate:
		return "TASK_DUPLICATE"
	case CodeActionFailed:
		return "ACTION_FAILED"
	case CodeInternalError:
		return "INTERNAL_ERROR"
	case CodeShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(c))
	}
}

// Error is the concrete error type returned across the scheduler's public
// surface. It always carries a Code so callers can branch on errors.As
// without string matching.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error that wraps an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to match on Code alone when the target is a bare
// *Error carrying only a Code (no message).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// BadParameter constructs a CodeBadParameter error.
func BadParameter(message string) *Error { return New(CodeBadParameter, message) }

// TaskDuplicate constructs a CodeTaskDuplicate error.
func TaskDuplicate(message string) *Error { return New(CodeTaskDuplicate, message) }

// ShuttingDown constructs a CodeShuttingDown error.
func ShuttingDown(message string) *Error { return New(CodeShuttingDown, message) }

// InternalError wraps a panic or abnormal termination surfaced by a plugin.
func InternalError(message string, cause error) *Error {
	return Wrap(CodeInternalError, message, cause)
}
