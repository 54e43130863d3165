// Package testutil provides shared test helpers for kopiyka packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
	"github.com/Veraticus/kopiyka/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SeedUser describes a user to create before the test runs.
type SeedUser struct {
	Name           string
	SpreadsheetURL string
	ChatID         int64
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Users          []SeedUser
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
//
// Example:
//
//	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
//		Users: []testutil.SeedUser{{ChatID: 42, Name: "Оля"}},
//	})
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Storage: store, t: t}
	for _, u := range opts.Users {
		user := db.MustCreateUser(u.ChatID, u.Name)
		if u.SpreadsheetURL != "" {
			if err := store.SetSpreadsheetURL(ctx, user.ID, u.SpreadsheetURL); err != nil {
				t.Fatalf("failed to seed link for chat %d: %v", u.ChatID, err)
			}
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// MustCreateUser gets or creates the user for chatID or fails the test.
func (db *TestDB) MustCreateUser(chatID int64, name string) *model.User {
	db.t.Helper()
	user, err := db.Storage.GetOrCreateUser(context.Background(), chatID, name)
	if err != nil {
		db.t.Fatalf("failed to create user for chat %d: %v", chatID, err)
	}
	return user
}

// MustGetUser returns the stored user for chatID or fails the test.
func (db *TestDB) MustGetUser(chatID int64) *model.User {
	db.t.Helper()
	user, err := db.Storage.GetUserByChatID(context.Background(), chatID)
	if err != nil {
		db.t.Fatalf("failed to load user for chat %d: %v", chatID, err)
	}
	return user
}

// UserCount returns how many users are stored.
func (db *TestDB) UserCount() int {
	db.t.Helper()
	users, err := db.Storage.ListUsers(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list users: %v", err)
	}
	return len(users)
}

// Expenses returns every ledger row of the user, newest first.
func (db *TestDB) Expenses(userID int64) []model.Expense {
	db.t.Helper()
	expenses, err := db.Storage.ListExpenses(context.Background(), userID, 0)
	if err != nil {
		db.t.Fatalf("failed to list expenses: %v", err)
	}
	return expenses
}
