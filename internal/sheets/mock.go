package sheets

import (
	"context"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
)

// MockSink is a mock implementation of service.SpreadsheetSink for testing.
type MockSink struct {
	CreateSheetFunc   func(ctx context.Context, user *model.User) (string, error)
	AppendExpenseFunc func(ctx context.Context, user *model.User, amount decimal.Decimal, category, description string) (service.AppendResult, error)
	// Links, when set, receives the generated link like the real sink does.
	Links             service.LinkStore
	CreateCalls       []int64
	AppendCalls       []AppendCall
	mu                sync.Mutex
}

// AppendCall records a single call to AppendExpense.
type AppendCall struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	UserID      int64
}

// NewMockSink creates a new mock sink. Without overrides, CreateSheet returns
// a link derived from the user's chat id and AppendExpense succeeds.
func NewMockSink(links service.LinkStore) *MockSink {
	return &MockSink{Links: links}
}

// CreateSheet implements service.SpreadsheetSink.
func (m *MockSink) CreateSheet(ctx context.Context, user *model.User) (string, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, user.ID)
	fn := m.CreateSheetFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, user)
	}
	if user.HasSpreadsheet() {
		return user.SpreadsheetURL, nil
	}
	link := SpreadsheetURL("mock-" + strconv.FormatInt(user.ChatID, 10))
	if m.Links != nil {
		if err := m.Links.SetSpreadsheetURL(ctx, user.ID, link); err != nil {
			return "", err
		}
	}
	user.SpreadsheetURL = link
	return link, nil
}

// AppendExpense implements service.SpreadsheetSink.
func (m *MockSink) AppendExpense(ctx context.Context, user *model.User, amount decimal.Decimal, category, description string) (service.AppendResult, error) {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		UserID:      user.ID,
		Amount:      amount,
		Category:    category,
		Description: description,
	})
	fn := m.AppendExpenseFunc
	rows := len(m.AppendCalls)
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, user, amount, category, description)
	}
	return service.AppendResult{Row: rows + 1}, nil
}

// GetAppendCalls returns a copy of all append calls.
func (m *MockSink) GetAppendCalls() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]AppendCall, len(m.AppendCalls))
	copy(calls, m.AppendCalls)
	return calls
}

// CreateCallCount returns how many times CreateSheet was called.
func (m *MockSink) CreateCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CreateCalls)
}
