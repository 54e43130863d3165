package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
)

const (
	systemPrompt = "Аналізуй витрати з текстових повідомлень."

	userPromptTemplate = `Проаналізуй наступний текст витрат і поверни лише JSON з ключами:
- 'total' (загальна сума чека),
- 'category' (категорія товарів або 'Інше', якщо неможливо визначити),
- 'description' (короткий перелік товарів з цінами в одному рядку або 'Товар', якщо неможливо визначити).

Не додавай пояснень чи додаткового тексту, лише JSON.
Текст: %s`
)

// Classifier turns expense text into a structured expense using a completion model.
type Classifier struct {
	client Client
	logger *slog.Logger
}

// NewClassifier creates a new LLM-based expense classifier.
func NewClassifier(client Client, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify asks the model for {total, category, description}.
//
// A reply that is not JSON, lacks one of the keys, or carries a total that is
// not a number yields common.ErrUnrecognizedExpense. A null or zero total is
// not an error: the returned expense simply has no usable total.
func (c *Classifier) Classify(ctx context.Context, chatID int64, text string) (model.ExtractedExpense, error) {
	content, err := c.client.Complete(ctx, systemPrompt, fmt.Sprintf(userPromptTemplate, text))
	if err != nil {
		return model.ExtractedExpense{}, fmt.Errorf("completion failed: %w", err)
	}

	expense, err := parseExpense(content)
	if err != nil {
		c.logger.Info("expense not recognized",
			"chat_id", chatID,
			"reply", content,
			"error", err)
		return model.ExtractedExpense{}, err
	}

	c.logger.Debug("expense classified",
		"chat_id", chatID,
		"has_total", expense.HasTotal(),
		"category", expense.Category)

	return expense, nil
}

func parseExpense(content string) (model.ExtractedExpense, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &fields); err != nil {
		return model.ExtractedExpense{}, fmt.Errorf("%w: invalid JSON: %v", common.ErrUnrecognizedExpense, err)
	}

	for _, key := range []string{"total", "category", "description"} {
		if _, ok := fields[key]; !ok {
			return model.ExtractedExpense{}, fmt.Errorf("%w: missing %q", common.ErrUnrecognizedExpense, key)
		}
	}

	total, err := parseTotal(fields["total"])
	if err != nil {
		return model.ExtractedExpense{}, err
	}

	category, err := optionalString(fields["category"], "category")
	if err != nil {
		return model.ExtractedExpense{}, err
	}

	description, err := optionalString(fields["description"], "description")
	if err != nil {
		return model.ExtractedExpense{}, err
	}

	return model.ExtractedExpense{
		Total:       total,
		Category:    category,
		Description: description,
	}, nil
}

// parseTotal accepts a JSON number, a numeric string (comma decimals allowed)
// or null.
func parseTotal(raw json.RawMessage) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return nil, nil
	}

	var number string
	if strings.HasPrefix(trimmed, `"`) {
		if err := json.Unmarshal(raw, &number); err != nil {
			return nil, fmt.Errorf("%w: total: %v", common.ErrUnrecognizedExpense, err)
		}
		number = strings.ReplaceAll(strings.TrimSpace(number), ",", ".")
		number = strings.ReplaceAll(number, " ", "")
	} else {
		number = trimmed
	}

	total, err := decimal.NewFromString(number)
	if err != nil {
		return nil, fmt.Errorf("%w: total %s is not a number", common.ErrUnrecognizedExpense, trimmed)
	}

	total = model.RoundMoney(total)
	return &total, nil
}

func optionalString(raw json.RawMessage, key string) (string, error) {
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", fmt.Errorf("%w: %s must be a string", common.ErrUnrecognizedExpense, key)
		}
		return "", fmt.Errorf("%w: %s: %v", common.ErrUnrecognizedExpense, key, err)
	}
	if value == nil {
		return "", nil
	}
	return strings.TrimSpace(*value), nil
}

// cleanMarkdownWrapper strips a ```json fence some models wrap replies in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if newline := strings.IndexByte(content, '\n'); newline >= 0 {
		content = content[newline+1:]
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
