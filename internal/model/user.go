// Package model defines the core domain models used throughout the application.
package model

import "time"

// DefaultDisplayName is used when the sender has no first name.
const DefaultDisplayName = "Unknown"

// User is a chat participant who owns a spreadsheet and a ledger.
type User struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DisplayName    string
	SpreadsheetURL string // empty until the sheet is provisioned; never reset afterwards
	ID             int64
	ChatID         int64
}

// HasSpreadsheet reports whether the user's sheet has already been provisioned.
func (u *User) HasSpreadsheet() bool {
	return u.SpreadsheetURL != ""
}
