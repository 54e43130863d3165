package model

import "github.com/shopspring/decimal"

// ExtractedExpense is what the language model made of a message. It is never persisted.
type ExtractedExpense struct {
	Total       *decimal.Decimal // nil when the model could not find a usable amount
	Category    string
	Description string
}

// HasTotal reports whether the extraction produced a positive, recordable amount.
func (e ExtractedExpense) HasTotal() bool {
	return e.Total != nil && e.Total.IsPositive()
}
