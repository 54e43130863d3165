// Package bot routes chat messages through extraction, classification and
// bookkeeping, and is the only place that decides what the user is told.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
)

// Deps are the collaborators a Handler needs.
type Deps struct {
	Users      service.UserStore
	Ledger     service.Ledger
	Extractor  service.ContentExtractor
	Classifier service.ExpenseClassifier
	Sink       service.SpreadsheetSink
	Messenger  service.Messenger
}

// Handler processes one inbound message at a time. It holds no per-chat
// state; concurrent calls for different chats are safe.
type Handler struct {
	users      service.UserStore
	ledger     service.Ledger
	extractor  service.ContentExtractor
	classifier service.ExpenseClassifier
	sink       service.SpreadsheetSink
	messenger  service.Messenger
	logger     *slog.Logger
}

// NewHandler creates a handler from its dependencies.
func NewHandler(deps Deps, logger *slog.Logger) (*Handler, error) {
	switch {
	case deps.Users == nil:
		return nil, fmt.Errorf("%w: user store", common.ErrMissingConfig)
	case deps.Ledger == nil:
		return nil, fmt.Errorf("%w: ledger", common.ErrMissingConfig)
	case deps.Extractor == nil:
		return nil, fmt.Errorf("%w: content extractor", common.ErrMissingConfig)
	case deps.Classifier == nil:
		return nil, fmt.Errorf("%w: classifier", common.ErrMissingConfig)
	case deps.Sink == nil:
		return nil, fmt.Errorf("%w: spreadsheet sink", common.ErrMissingConfig)
	case deps.Messenger == nil:
		return nil, fmt.Errorf("%w: messenger", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		users:      deps.Users,
		ledger:     deps.Ledger,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		sink:       deps.Sink,
		messenger:  deps.Messenger,
		logger:     logger,
	}, nil
}

// Handle processes in and reports failures to the user. It never returns an
// error: every update is considered handled once Handle returns.
func (h *Handler) Handle(ctx context.Context, in model.Inbound) {
	logger := h.logger.With("chat_id", in.ChatID, "update_id", in.UpdateID)

	err := h.route(ctx, in)
	if err == nil {
		return
	}

	if userErr, ok := common.AsUserError(err); ok {
		logger.Info("message rejected", "reason", userErr.Err)
		h.reply(ctx, logger, in.ChatID, userErr.UserMessage)
		return
	}

	logger.Error("failed to process message", "error", err)
	h.reply(ctx, logger, in.ChatID, msgGeneric)
}

func (h *Handler) route(ctx context.Context, in model.Inbound) error {
	switch in.Command {
	case cmdStart:
		return h.handleStart(ctx, in)
	case cmdLink:
		return h.handleLink(ctx, in)
	case cmdHelp:
		return h.send(ctx, in.ChatID, msgHelp)
	default:
		return h.handleExpense(ctx, in)
	}
}

func (h *Handler) handleStart(ctx context.Context, in model.Inbound) error {
	user, err := h.users.GetOrCreateUser(ctx, in.ChatID, in.SenderName)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	link, created, err := h.ensureSheet(ctx, user)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	return h.send(ctx, in.ChatID, fmt.Sprintf(msgSheetLink, link))
}

func (h *Handler) handleLink(ctx context.Context, in model.Inbound) error {
	user, err := h.users.GetOrCreateUser(ctx, in.ChatID, in.SenderName)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	link, _, err := h.ensureSheet(ctx, user)
	if err != nil {
		return err
	}
	return h.send(ctx, in.ChatID, fmt.Sprintf(msgSheetLink, link))
}

func (h *Handler) handleExpense(ctx context.Context, in model.Inbound) error {
	text, err := h.extractor.Extract(ctx, in.Content)
	if err != nil {
		if errors.Is(err, common.ErrNoContent) {
			return common.NewUserError(msgNoContent, err)
		}
		return fmt.Errorf("extract content: %w", err)
	}

	extracted, err := h.classifier.Classify(ctx, in.ChatID, text)
	if err != nil {
		if errors.Is(err, common.ErrUnrecognizedExpense) {
			return common.NewUserError(fmt.Sprintf(msgUnrecognized, truncateRunes(text, maxEchoRunes)), err)
		}
		return fmt.Errorf("classify expense: %w", err)
	}
	if !extracted.HasTotal() {
		h.logger.Info("no total found", "chat_id", in.ChatID)
		return h.send(ctx, in.ChatID, msgRetry)
	}

	user, err := h.users.GetOrCreateUser(ctx, in.ChatID, in.SenderName)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	link, created, err := h.ensureSheet(ctx, user)
	if err != nil {
		return err
	}
	if created {
		if err := h.send(ctx, in.ChatID, fmt.Sprintf(msgSheetLink, link)); err != nil {
			return err
		}
	}

	amount := model.RoundMoney(*extracted.Total)

	// The sheet row is written first. A ledger failure after this point
	// leaves the row in place.
	result, err := h.sink.AppendExpense(ctx, user, amount, extracted.Category, extracted.Description)
	if err != nil {
		if errors.Is(err, common.ErrCapacityExceeded) {
			return common.NewUserError(msgCapacity, err)
		}
		return fmt.Errorf("append to spreadsheet: %w", err)
	}
	if result.RollupSkipped {
		h.logger.Warn("category rollup is full", "chat_id", in.ChatID, "category", extracted.Category)
	}

	expense := &model.Expense{
		UserID:      user.ID,
		Amount:      amount,
		Category:    extracted.Category,
		Description: extracted.Description,
		Source:      model.SourceTelegram,
	}
	if err := h.ledger.RecordExpense(ctx, expense); err != nil {
		return fmt.Errorf("record expense: %w", err)
	}

	h.logger.Info("expense recorded",
		"chat_id", in.ChatID,
		"expense_id", expense.ID,
		"amount", model.FormatMoney(amount),
		"category", expense.Category,
		"row", result.Row)

	return h.send(ctx, in.ChatID, fmt.Sprintf(msgConfirmation, model.FormatMoney(amount)))
}

// ensureSheet returns the user's spreadsheet link, provisioning the sheet on
// first use. created reports whether this call made it.
func (h *Handler) ensureSheet(ctx context.Context, user *model.User) (link string, created bool, err error) {
	if user.HasSpreadsheet() {
		return user.SpreadsheetURL, false, nil
	}

	link, err = h.sink.CreateSheet(ctx, user)
	if err != nil {
		return "", false, fmt.Errorf("create spreadsheet: %w", err)
	}
	user.SpreadsheetURL = link

	h.logger.Info("spreadsheet created", "chat_id", user.ChatID, "user_id", user.ID)
	return link, true, nil
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) error {
	if err := h.messenger.SendText(ctx, chatID, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, logger *slog.Logger, chatID int64, text string) {
	if err := h.messenger.SendText(ctx, chatID, text); err != nil {
		logger.Error("failed to send reply", "error", err)
	}
}

// truncateRunes cuts text to at most limit runes, marking the cut with an ellipsis.
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
