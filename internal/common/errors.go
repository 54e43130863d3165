// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrLinkAlreadySet = errors.New("spreadsheet link already set")

	// Content errors. These are the user's fault, not the pipeline's.
	ErrNoContent           = errors.New("no analyzable content")
	ErrUnrecognizedExpense = errors.New("expense not recognized")
	ErrUnsupportedMedia    = errors.New("unsupported media kind")

	// Upstream errors.
	ErrEmptyDownload = errors.New("downloaded file is empty")

	// Spreadsheet errors.
	ErrCapacityExceeded = errors.New("spreadsheet capacity exceeded")
	ErrInvalidSheetURL  = errors.New("invalid spreadsheet url")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
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

// AsUserError reports whether err carries a message meant for the user.
func AsUserError(err error) (*UserError, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr, true
	}
	return nil, false
}
