// Package storage provides the data persistence layer for users and the expense ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrInvalidExpense = errors.New("invalid expense")
	ErrInvalidUser    = errors.New("invalid user")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateChatID(chatID int64) error {
	if chatID == 0 {
		return fmt.Errorf("%w: chat id is required", ErrInvalidUser)
	}
	return nil
}

// validateExpense validates an expense before it is recorded.
func validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense", common.ErrNilParameter)
	}
	if expense.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidExpense)
	}
	if !expense.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidExpense, expense.Amount)
	}
	if strings.TrimSpace(expense.Source) == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidExpense)
	}
	return nil
}

// displayNameOrDefault keeps blank profile names out of the users table.
func displayNameOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.DefaultDisplayName
	}
	return name
}

// nullable maps an empty optional string to SQL NULL.
func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
