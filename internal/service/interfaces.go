// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/shopspring/decimal"
)

// UserStore owns the User entity.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, chatID int64, displayName string) (*model.User, error)
	GetUserByChatID(ctx context.Context, chatID int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	LinkStore
}

// LinkStore persists the one-time transition of a user's spreadsheet link.
type LinkStore interface {
	SetSpreadsheetURL(ctx context.Context, userID int64, url string) error
}

// Ledger records accepted expenses.
type Ledger interface {
	RecordExpense(ctx context.Context, expense *model.Expense) error
	ListExpenses(ctx context.Context, userID int64, limit int) ([]model.Expense, error)
}

// Storage is the full persistence contract.
type Storage interface {
	UserStore
	Ledger
	Migrate(ctx context.Context) error
	Close() error
}

// Messenger delivers text to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// RemoteFile is a chat-platform file resolved to something downloadable.
type RemoteFile struct {
	Path string // platform-side path, used for the local file name
	URL  string // temporary download URL
}

// FileResolver turns a platform file id into a download URL.
type FileResolver interface {
	ResolveFile(ctx context.Context, fileID string) (RemoteFile, error)
}

// MediaFetcher materializes message attachments on local disk.
type MediaFetcher interface {
	Fetch(ctx context.Context, content model.Content) (string, error)
}

// OCR recognizes text in an image file.
type OCR interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ContentExtractor converts a message payload to plain text.
type ContentExtractor interface {
	Extract(ctx context.Context, content model.Content) (string, error)
}

// ExpenseClassifier turns free text into a structured expense.
type ExpenseClassifier interface {
	Classify(ctx context.Context, chatID int64, text string) (model.ExtractedExpense, error)
}

// AppendResult describes a successful spreadsheet append.
type AppendResult struct {
	Row           int
	RollupRow     int  // zero when no category was given
	RollupSkipped bool // the rollup region was full
}

// SpreadsheetSink owns the per-user spreadsheet.
type SpreadsheetSink interface {
	CreateSheet(ctx context.Context, user *model.User) (string, error)
	AppendExpense(ctx context.Context, user *model.User, amount decimal.Decimal, category, description string) (AppendResult, error)
}
