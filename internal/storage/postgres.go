package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
)

// PostgresStorage implements service.Storage on a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

var postgresMigrations = []struct {
	Description string
	SQL         string
	Version     int
}{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				telegram_id BIGINT UNIQUE NOT NULL,
				name TEXT NOT NULL DEFAULT 'Unknown',
				sheet_link TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE TABLE IF NOT EXISTS expenses (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				amount NUMERIC(14, 2) NOT NULL,
				source TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			);
			CREATE INDEX IF NOT EXISTS idx_expenses_user ON expenses(user_id);
		`,
	},
	{
		Version:     2,
		Description: "Add category and description to expenses",
		SQL: `
			ALTER TABLE expenses ADD COLUMN IF NOT EXISTS category TEXT;
			ALTER TABLE expenses ADD COLUMN IF NOT EXISTS description TEXT;
		`,
	},
}

// NewPostgresStorage connects to PostgreSQL and verifies the connection.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	if err := validateString(dsn, "dsn"); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *PostgresStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate runs all pending migrations, each in its own transaction.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range postgresMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.pool.Begin(ctx)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}
		if _, execErr := tx.Exec(ctx, migration.SQL); execErr != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %d failed: %w", migration.Version, execErr)
		}
		if _, execErr := tx.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, migration.Version); execErr != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}

// GetOrCreateUser returns the user for a chat, registering it on first contact.
func (s *PostgresStorage) GetOrCreateUser(ctx context.Context, chatID int64, displayName string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateChatID(chatID); err != nil {
		return nil, err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (telegram_id, name)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO NOTHING
	`, chatID, displayNameOrDefault(displayName))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUserByChatID(ctx, chatID)
}

// GetUserByChatID looks a user up by chat id.
func (s *PostgresStorage) GetUserByChatID(ctx context.Context, chatID int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, chatID)
	user, err := scanPostgresUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user with chat id %d: %w", chatID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every registered user ordered by registration.
func (s *PostgresStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, scanErr := scanPostgresUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan user: %w", scanErr)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetSpreadsheetURL records the user's sheet link. The link can only be set once.
func (s *PostgresStorage) SetSpreadsheetURL(ctx context.Context, userID int64, url string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(url, "url"); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET sheet_link = $1, updated_at = now()
		WHERE id = $2 AND sheet_link IS NULL
	`, url, userID)
	if err != nil {
		return fmt.Errorf("failed to set spreadsheet link: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	return fmt.Errorf("user %d: %w", userID, common.ErrLinkAlreadySet)
}

// RecordExpense appends one immutable expense row.
func (s *PostgresStorage) RecordExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	amount := model.RoundMoney(expense.Amount)

	err := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount, source, category, description)
		VALUES ($1, $2::numeric, $3, $4, $5)
		RETURNING id, created_at
	`, expense.UserID, model.FormatMoney(amount), expense.Source, nullable(expense.Category), nullable(expense.Description)).
		Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record expense: %w", err)
	}

	expense.Amount = amount
	return nil
}

// ListExpenses returns a user's most recent expenses, newest first.
// A non-positive limit returns everything.
func (s *PostgresStorage) ListExpenses(ctx context.Context, userID int64, limit int) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, amount::text, source, category, description, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		var (
			e           model.Expense
			amount      string
			category    *string
			description *string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &amount, &e.Source, &category, &description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		if category != nil {
			e.Category = *category
		}
		if description != nil {
			e.Description = *description
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanPostgresUser(row pgx.Row) (*model.User, error) {
	var (
		user model.User
		link *string
	)
	if err := row.Scan(&user.ID, &user.ChatID, &user.DisplayName, &link, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	if link != nil {
		user.SpreadsheetURL = *link
	}
	return &user, nil
}
