package protocol

import (
	"errors"
	"fmt"
)

// Code classifies a command failure.
type Code string

const (
	CodeMissingID      Code = "MISSING_ID"
	CodeNotFound       Code = "NOT_FOUND"
	CodeAlreadyExists  Code = "ALREADY_EXISTS"
	CodeTargetNotFound Code = "TARGET_NOT_FOUND"
	CodeInvalidParams  Code = "INVALID_PARAMS"
	CodeUnknownCommand Code = "UNKNOWN_COMMAND"
	CodeInternal       Code = "INTERNAL"
)

// Error is the structured failure returned by every command.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func MissingID() *Error {
	return newError(CodeMissingID, "window id is required")
}

func NotFound(id string) *Error {
	return newError(CodeNotFound, "window %q not found", id)
}

func AlreadyExists(id string) *Error {
	return newError(CodeAlreadyExists, "window %q already exists", id)
}

func TargetNotFound(id string) *Error {
	return newError(CodeTargetNotFound, "target window %q not found", id)
}

func InvalidParams(format string, args ...any) *Error {
	return newError(CodeInvalidParams, format, args...)
}

func UnknownCommand(service, command string) *Error {
	return newError(CodeUnknownCommand, "unknown command %s/%s", service, command)
}

func Internal(format string, args ...any) *Error {
	return newError(CodeInternal, format, args...)
}

// CodeOf extracts the code from err, returning CodeInternal for foreign
// errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}
