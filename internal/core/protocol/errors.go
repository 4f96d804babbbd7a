package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrInvalidParams = errors.New("invalid params")
	ErrEnvFailure    = errors.New("environment failure")
	ErrInternal      = errors.New("internal error")
)

// ErrorCode is the numeric code carried on the wire.
type ErrorCode int

const (
	ErrorCodeUnknownMethod ErrorCode = 1001
	ErrorCodeInvalidParams ErrorCode = 1002
	ErrorCodeEnvFailure    ErrorCode = 2001
	ErrorCodeInternal      ErrorCode = 9003
)

var codeErrors = map[ErrorCode]error{
	ErrorCodeUnknownMethod: ErrUnknownMethod,
	ErrorCodeInvalidParams: ErrInvalidParams,
	ErrorCodeEnvFailure:    ErrEnvFailure,
	ErrorCodeInternal:      ErrInternal,
}

// Error is a protocol error as sent over the wire. Cause is local only.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel of e's code, so decoded errors still satisfy
// errors.Is on the receiving side.
func (e *Error) Is(target error) bool {
	sentinel, ok := codeErrors[e.Code]
	return ok && sentinel == target
}

// AsError converts any error into a wire error. Errors that are not
// already protocol errors are reported as environment failures.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return &Error{Code: pe.Code, Message: err.Error(), Cause: pe.Cause}
	}
	return &Error{Code: ErrorCodeEnvFailure, Message: err.Error(), Cause: err}
}
