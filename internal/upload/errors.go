package upload

import (
	"errors"
	"fmt"

	"labelpress/internal/constants"
)

// Error is a typed upload failure with a stable error code.
// The transport layer maps codes to HTTP statuses; the core never
// decides presentation.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new upload error
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with an upload error
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrorCode checks if an error is an upload Error and returns its code
func ErrorCode(err error) (string, bool) {
	var upErr *Error
	if errors.As(err, &upErr) {
		return upErr.Code, true
	}
	return "", false
}

// Pre-defined errors for the upload pipeline
var (
	ErrUnknownDestination   = NewError(constants.ErrCodeUnknownDestination, "unknown upload destination")
	ErrForbidden            = NewError(constants.ErrCodeForbidden, "missing required permission for destination")
	ErrUnsupportedMediaType = NewError(constants.ErrCodeUnsupportedMediaType, "content type not allowed for destination")
	ErrPayloadTooLarge      = NewError(constants.ErrCodePayloadTooLarge, "upload exceeds maximum size for destination")
	ErrAlreadyExists        = NewError(constants.ErrCodeAlreadyExists, "a file already exists at the destination path")
	ErrNameCollision        = NewError(constants.ErrCodeNameCollision, "could not produce a unique file name")
	ErrInvalidFilename      = NewError(constants.ErrCodeInvalidFilename, "file name is empty after sanitization")
)

// Errors with context

func ErrUnknownDestinationWithValue(value string) *Error {
	return &Error{
		Code:    constants.ErrCodeUnknownDestination,
		Message: fmt.Sprintf("unknown upload destination: %q", value),
	}
}

func ErrAlreadyExistsWithName(name string) *Error {
	return &Error{
		Code:    constants.ErrCodeAlreadyExists,
		Message: fmt.Sprintf("file already exists: %s", name),
	}
}

func ErrNameCollisionWithName(name string) *Error {
	return &Error{
		Code:    constants.ErrCodeNameCollision,
		Message: fmt.Sprintf("name collision: %s", name),
	}
}

// WrapIoFailure wraps a storage or stream error, keeping the cause for
// diagnostics. Callers may safely retry: no partial artifact remains.
func WrapIoFailure(err error) *Error {
	return WrapError(constants.ErrCodeIoFailure, "storage failure", err)
}
