package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrUnreadablePage marks a page with no extractable text layer. It is
	// recovered per page; the run continues.
	ErrUnreadablePage = errors.New("page has no extractable text")

	// ErrEmptyDocument is fatal: the source document has zero pages.
	ErrEmptyDocument = errors.New("source document has no pages")

	// ErrOutputDirUnwritable is fatal: the output location cannot be
	// created or written. Raised before any per-page work.
	ErrOutputDirUnwritable = errors.New("output directory is not writable")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
