package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/common"
)

type stubClient struct {
	err        error
	reply      string
	userPrompt string
	calls      int
}

func (s *stubClient) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	s.calls++
	s.userPrompt = userPrompt
	return s.reply, s.err
}

func TestClassifierClassify(t *testing.T) {
	tests := []struct {
		wantErr         error
		name            string
		reply           string
		wantTotal       string
		wantCategory    string
		wantDescription string
		wantHasTotal    bool
	}{
		{
			name:            "number total",
			reply:           `{"total": 55, "category": "Food", "description": "Coffee"}`,
			wantHasTotal:    true,
			wantTotal:       "55.00",
			wantCategory:    "Food",
			wantDescription: "Coffee",
		},
		{
			name:            "fractional total is rounded",
			reply:           `{"total": 12.345, "category": "Інше", "description": "Товар"}`,
			wantHasTotal:    true,
			wantTotal:       "12.35",
			wantCategory:    "Інше",
			wantDescription: "Товар",
		},
		{
			name:         "string total with comma",
			reply:        `{"total": "1 234,50", "category": "Побут", "description": null}`,
			wantHasTotal: true,
			wantTotal:    "1234.50",
			wantCategory: "Побут",
		},
		{
			name:            "markdown fenced reply",
			reply:           "```json\n{\"total\": 10, \"category\": \"Транспорт\", \"description\": \"Таксі\"}\n```",
			wantHasTotal:    true,
			wantTotal:       "10.00",
			wantCategory:    "Транспорт",
			wantDescription: "Таксі",
		},
		{
			name:            "null total",
			reply:           `{"total": null, "category": "Інше", "description": "Товар"}`,
			wantHasTotal:    false,
			wantCategory:    "Інше",
			wantDescription: "Товар",
		},
		{
			name:            "zero total",
			reply:           `{"total": 0, "category": "Інше", "description": "Товар"}`,
			wantHasTotal:    false,
			wantTotal:       "0.00",
			wantCategory:    "Інше",
			wantDescription: "Товар",
		},
		{
			name:    "not json",
			reply:   "Sorry, I cannot help with that.",
			wantErr: common.ErrUnrecognizedExpense,
		},
		{
			name:    "missing key",
			reply:   `{"total": 5, "category": "Food"}`,
			wantErr: common.ErrUnrecognizedExpense,
		},
		{
			name:    "total not a number",
			reply:   `{"total": "багато", "category": "Food", "description": "x"}`,
			wantErr: common.ErrUnrecognizedExpense,
		},
		{
			name:    "category wrong type",
			reply:   `{"total": 5, "category": 7, "description": "x"}`,
			wantErr: common.ErrUnrecognizedExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{reply: tt.reply}
			classifier := NewClassifier(client, nil)

			got, err := classifier.Classify(context.Background(), 42, "Кава 55 грн")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantHasTotal, got.HasTotal())
			if tt.wantTotal != "" {
				require.NotNil(t, got.Total)
				assert.Equal(t, tt.wantTotal, got.Total.StringFixed(2))
			} else {
				assert.Nil(t, got.Total)
			}
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantDescription, got.Description)
		})
	}
}

func TestClassifierPromptCarriesText(t *testing.T) {
	client := &stubClient{reply: `{"total": 1, "category": "a", "description": "b"}`}
	_, err := NewClassifier(client, nil).Classify(context.Background(), 1, "Хліб 32.50")
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Contains(t, client.userPrompt, "Текст: Хліб 32.50")
	assert.Contains(t, client.userPrompt, "'total'")
}

func TestClassifierTransportError(t *testing.T) {
	upstream := errors.New("connection reset")
	client := &stubClient{err: upstream}

	_, err := NewClassifier(client, nil).Classify(context.Background(), 1, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
	assert.NotErrorIs(t, err, common.ErrUnrecognizedExpense)
}

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "  {\"a\":1}\n", want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```json{\"a\":1}```", want: `{"a":1}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.in))
	}
}
