package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
)

const userColumns = `id, telegram_id, name, sheet_link, created_at, updated_at`

// GetOrCreateUser returns the user for a chat, registering it on first contact.
// An existing user's display name is left untouched.
func (s *SQLiteStorage) GetOrCreateUser(ctx context.Context, chatID int64, displayName string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateChatID(chatID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, name)
		VALUES (?, ?)
		ON CONFLICT(telegram_id) DO NOTHING
	`, chatID, displayNameOrDefault(displayName))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.getUserByChatIDTx(ctx, s.db, chatID)
}

// GetUserByChatID looks a user up by chat id.
func (s *SQLiteStorage) GetUserByChatID(ctx context.Context, chatID int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getUserByChatIDTx(ctx, s.db, chatID)
}

func (s *SQLiteStorage) getUserByChatIDTx(ctx context.Context, q queryable, chatID int64) (*model.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, chatID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user with chat id %d: %w", chatID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every registered user ordered by registration.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan user: %w", scanErr)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetSpreadsheetURL records the user's sheet link. The link can only be set once.
func (s *SQLiteStorage) SetSpreadsheetURL(ctx context.Context, userID int64, url string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(url, "url"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET sheet_link = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND sheet_link IS NULL
	`, url, userID)
	if err != nil {
		return fmt.Errorf("failed to set spreadsheet link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	return fmt.Errorf("user %d: %w", userID, common.ErrLinkAlreadySet)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user model.User
		link sql.NullString
	)
	if err := row.Scan(&user.ID, &user.ChatID, &user.DisplayName, &link, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.SpreadsheetURL = link.String
	return &user, nil
}
