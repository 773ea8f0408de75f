// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrDatabaseNotFound = errors.New("database file not found")
	ErrPoolExhausted    = errors.New("connection pool exhausted")
	ErrPoolClosed       = errors.New("connection pool closed")
	ErrQueryFailed      = errors.New("query failed")
	ErrTableNotFound    = errors.New("table not found")
	ErrAccountNotFound  = errors.New("account not found")

	// Input validation errors.
	ErrMalformedDate    = errors.New("malformed date")
	ErrInvalidDateRange = errors.New("invalid date range")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnexpected is the catch-all for recovered panics and faults
	// that fit no other category.
	ErrUnexpected = errors.New("unexpected error")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// A full pool drains as soon as another borrower returns a handle.
	if errors.Is(err, ErrPoolExhausted) {
		return true
	}

	// Check for retryable error type
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
