package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/kopiyka/internal/model"
)

// RecordExpense appends one immutable expense row. ID and CreatedAt are filled
// in from the database.
func (s *SQLiteStorage) RecordExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	amount := model.RoundMoney(expense.Amount)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, amount, source, category, description)
		VALUES (?, ?, ?, ?, ?)
	`, expense.UserID, model.FormatMoney(amount), expense.Source, nullable(expense.Category), nullable(expense.Description))
	if err != nil {
		return fmt.Errorf("failed to record expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get expense id: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM expenses WHERE id = ?`, id).Scan(&expense.CreatedAt); err != nil {
		return fmt.Errorf("failed to read expense timestamp: %w", err)
	}

	expense.ID = id
	expense.Amount = amount
	return nil
}

// ListExpenses returns a user's most recent expenses, newest first.
// A non-positive limit returns everything.
func (s *SQLiteStorage) ListExpenses(ctx context.Context, userID int64, limit int) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, source, category, description, created_at
		FROM expenses
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		var (
			e           model.Expense
			category    sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Source, &category, &description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Category = category.String
		e.Description = description.String
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
