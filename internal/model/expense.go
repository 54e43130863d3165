package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceTelegram tags expenses that arrived through the Telegram bot.
const SourceTelegram = "telegram"

// Expense is one immutable ledger row.
type Expense struct {
	CreatedAt   time.Time
	Amount      decimal.Decimal
	Source      string
	Category    string // optional
	Description string // optional
	ID          int64
	UserID      int64
}

// RoundMoney normalizes an amount to two fractional digits.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders an amount with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
