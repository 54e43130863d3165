package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
)

type backend interface {
	service.Storage
	SchemaVersion(ctx context.Context) (int, error)
}

// runStorageSuite exercises the behavior every backend must share.
func runStorageSuite(t *testing.T, open func(t *testing.T) backend) {
	t.Helper()

	t.Run("get or create is idempotent", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		first, err := store.GetOrCreateUser(ctx, 1001, "Taras")
		require.NoError(t, err)
		assert.Positive(t, first.ID)
		assert.Equal(t, int64(1001), first.ChatID)
		assert.Equal(t, "Taras", first.DisplayName)
		assert.False(t, first.HasSpreadsheet())

		second, err := store.GetOrCreateUser(ctx, 1001, "Someone Else")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Taras", second.DisplayName)
	})

	t.Run("blank name falls back to default", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		user, err := store.GetOrCreateUser(ctx, 1002, "   ")
		require.NoError(t, err)
		assert.Equal(t, model.DefaultDisplayName, user.DisplayName)
	})

	t.Run("zero chat id is rejected", func(t *testing.T) {
		store := open(t)
		_, err := store.GetOrCreateUser(context.Background(), 0, "x")
		assert.ErrorIs(t, err, ErrInvalidUser)
	})

	t.Run("unknown chat is not found", func(t *testing.T) {
		store := open(t)
		_, err := store.GetUserByChatID(context.Background(), 999)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("spreadsheet link is set once", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		user, err := store.GetOrCreateUser(ctx, 1003, "Oksana")
		require.NoError(t, err)

		link := "https://docs.google.com/spreadsheets/d/abc123"
		require.NoError(t, store.SetSpreadsheetURL(ctx, user.ID, link))

		got, err := store.GetUserByChatID(ctx, 1003)
		require.NoError(t, err)
		assert.Equal(t, link, got.SpreadsheetURL)
		assert.True(t, got.HasSpreadsheet())

		err = store.SetSpreadsheetURL(ctx, user.ID, "https://docs.google.com/spreadsheets/d/other")
		assert.ErrorIs(t, err, common.ErrLinkAlreadySet)

		got, err = store.GetUserByChatID(ctx, 1003)
		require.NoError(t, err)
		assert.Equal(t, link, got.SpreadsheetURL)
	})

	t.Run("spreadsheet link for missing user", func(t *testing.T) {
		store := open(t)
		err := store.SetSpreadsheetURL(context.Background(), 12345, "https://docs.google.com/spreadsheets/d/x")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("list users", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		_, err := store.GetOrCreateUser(ctx, 1, "A")
		require.NoError(t, err)
		_, err = store.GetOrCreateUser(ctx, 2, "B")
		require.NoError(t, err)

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "A", users[0].DisplayName)
		assert.Equal(t, "B", users[1].DisplayName)
	})

	t.Run("record and list expenses", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		user, err := store.GetOrCreateUser(ctx, 1004, "Ivan")
		require.NoError(t, err)

		first := &model.Expense{
			UserID:      user.ID,
			Amount:      decimal.RequireFromString("55.005"),
			Source:      model.SourceTelegram,
			Category:    "Продукти",
			Description: "Хліб",
		}
		require.NoError(t, store.RecordExpense(ctx, first))
		assert.Positive(t, first.ID)
		assert.False(t, first.CreatedAt.IsZero())
		assert.Equal(t, "55.01", model.FormatMoney(first.Amount))

		second := &model.Expense{
			UserID: user.ID,
			Amount: decimal.NewFromInt(120),
			Source: model.SourceTelegram,
		}
		require.NoError(t, store.RecordExpense(ctx, second))

		expenses, err := store.ListExpenses(ctx, user.ID, 0)
		require.NoError(t, err)
		require.Len(t, expenses, 2)

		assert.Equal(t, second.ID, expenses[0].ID)
		assert.Equal(t, "120.00", model.FormatMoney(expenses[0].Amount))
		assert.Empty(t, expenses[0].Category)
		assert.Empty(t, expenses[0].Description)

		assert.Equal(t, first.ID, expenses[1].ID)
		assert.True(t, decimal.RequireFromString("55.01").Equal(expenses[1].Amount))
		assert.Equal(t, "Продукти", expenses[1].Category)
		assert.Equal(t, "Хліб", expenses[1].Description)
		assert.Equal(t, model.SourceTelegram, expenses[1].Source)

		limited, err := store.ListExpenses(ctx, user.ID, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, second.ID, limited[0].ID)
	})

	t.Run("invalid expenses are rejected", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		user, err := store.GetOrCreateUser(ctx, 1005, "Petro")
		require.NoError(t, err)

		tests := []struct {
			expense *model.Expense
			wantErr error
			name    string
		}{
			{name: "nil", expense: nil, wantErr: common.ErrNilParameter},
			{name: "no user", expense: &model.Expense{Amount: decimal.NewFromInt(1), Source: model.SourceTelegram}, wantErr: ErrInvalidExpense},
			{name: "zero amount", expense: &model.Expense{UserID: user.ID, Amount: decimal.Zero, Source: model.SourceTelegram}, wantErr: ErrInvalidExpense},
			{name: "negative amount", expense: &model.Expense{UserID: user.ID, Amount: decimal.NewFromInt(-3), Source: model.SourceTelegram}, wantErr: ErrInvalidExpense},
			{name: "no source", expense: &model.Expense{UserID: user.ID, Amount: decimal.NewFromInt(3)}, wantErr: ErrInvalidExpense},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, store.RecordExpense(ctx, tt.expense), tt.wantErr)
			})
		}

		expenses, err := store.ListExpenses(ctx, user.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})
}
