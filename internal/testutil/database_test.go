package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/service"
)

func TestSetupTestDBWithOptions(t *testing.T) {
	customRan := false
	db := SetupTestDBWithOptions(t, TestDBOptions{
		Users: []SeedUser{
			{ChatID: 1, Name: "Оля"},
			{ChatID: 2, Name: "Петро", SpreadsheetURL: "https://docs.google.com/spreadsheets/d/abc"},
		},
		CustomSetup: func(_ context.Context, _ service.Storage) error {
			customRan = true
			return nil
		},
	})

	assert.True(t, customRan)
	assert.Equal(t, 2, db.UserCount())
	assert.False(t, db.MustGetUser(1).HasSpreadsheet())
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc", db.MustGetUser(2).SpreadsheetURL)
	assert.Empty(t, db.Expenses(db.MustGetUser(1).ID))
}

func TestMustCreateUserIsIdempotent(t *testing.T) {
	db := SetupTestDB(t)

	first := db.MustCreateUser(7, "Іра")
	second := db.MustCreateUser(7, "Other")
	require.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Іра", second.DisplayName)
}
