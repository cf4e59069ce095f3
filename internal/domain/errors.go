package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures surfaced to API clients.
type ErrorCode string

const (
	CodeValidation     ErrorCode = "ValidationError"
	CodeConflict       ErrorCode = "Conflict"
	CodeAuthentication ErrorCode = "AuthenticationError"
	CodeUnauthorized   ErrorCode = "Unauthorized"
	CodeForbidden      ErrorCode = "AuthorizationError"
	CodeNotFound       ErrorCode = "NotFound"
	CodeRateLimited    ErrorCode = "RateLimitExceeded"
)

// Error is a typed failure whose message is safe to show to clients.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
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

// WithDetails attaches client-visible details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

func NewConflictError(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func NewAuthenticationError(message string) *Error {
	return &Error{Code: CodeAuthentication, Message: message}
}

// NewUnauthorizedError wraps cause, which is kept for logs and never rendered.
func NewUnauthorizedError(message string, cause error) *Error {
	return &Error{Code: CodeUnauthorized, Message: message, Err: cause}
}

func NewForbiddenError(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == code
}
