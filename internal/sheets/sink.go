package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
	"github.com/Veraticus/kopiyka/internal/service"
)

// Sink implements service.SpreadsheetSink on Google Sheets.
type Sink struct {
	api      spreadsheetAPI
	links    service.LinkStore
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
	config   Config
}

// NewSink creates a spreadsheet sink backed by the Google APIs. Links of newly
// created spreadsheets are persisted through links.
func NewSink(ctx context.Context, config Config, links service.LinkStore, logger *slog.Logger) (*Sink, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := newGoogleAPI(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create google clients: %w", err)
	}

	return newSink(api, config, links, logger)
}

func newSink(api spreadsheetAPI, config Config, links service.LinkStore, logger *slog.Logger) (*Sink, error) {
	loc, err := config.location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sink{
		api:      api,
		links:    links,
		logger:   logger,
		location: loc,
		now:      time.Now,
		config:   config,
	}, nil
}

// CreateSheet creates the user's spreadsheet, makes it readable by link and
// stores the link on the user. A user that already has a link gets it back
// without a new spreadsheet being created.
func (s *Sink) CreateSheet(ctx context.Context, user *model.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("create sheet: %w", common.ErrNilParameter)
	}
	if user.HasSpreadsheet() {
		return user.SpreadsheetURL, nil
	}

	spreadsheetID, err := s.api.Create(ctx, s.newSpreadsheet(user))
	if err != nil {
		return "", err
	}

	if err := s.api.ShareReadable(ctx, spreadsheetID); err != nil {
		return "", err
	}

	if err := s.writeHeaders(ctx, spreadsheetID); err != nil {
		return "", err
	}

	if s.config.EnableFormatting {
		if err := s.api.BatchUpdate(ctx, spreadsheetID, formatRequests()); err != nil {
			s.logger.Warn("failed to apply formatting", "spreadsheet_id", spreadsheetID, "error", err)
		}
	}

	link := SpreadsheetURL(spreadsheetID)
	if err := s.links.SetSpreadsheetURL(ctx, user.ID, link); err != nil {
		if !errors.Is(err, common.ErrLinkAlreadySet) {
			return "", fmt.Errorf("failed to save spreadsheet link: %w", err)
		}
		// Lost a race with another delivery; keep the link that was stored first.
		s.logger.Warn("spreadsheet link already set, orphaned new spreadsheet",
			"user_id", user.ID, "spreadsheet_id", spreadsheetID)
		return s.storedLink(ctx, user)
	}
	user.SpreadsheetURL = link

	s.logger.Info("created spreadsheet",
		"user_id", user.ID,
		"chat_id", user.ChatID,
		"spreadsheet_id", spreadsheetID)

	return link, nil
}

func (s *Sink) storedLink(ctx context.Context, user *model.User) (string, error) {
	users, ok := s.links.(service.UserStore)
	if !ok {
		return "", fmt.Errorf("user %d: %w", user.ID, common.ErrLinkAlreadySet)
	}
	stored, err := users.GetUserByChatID(ctx, user.ChatID)
	if err != nil {
		return "", fmt.Errorf("failed to reload user: %w", err)
	}
	user.SpreadsheetURL = stored.SpreadsheetURL
	return stored.SpreadsheetURL, nil
}

func (s *Sink) newSpreadsheet(user *model.User) *sheets.Spreadsheet {
	title := s.config.TitlePrefix
	if user.DisplayName != "" {
		title = fmt.Sprintf("%s %s", title, user.DisplayName)
	}

	return &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    title,
			TimeZone: s.location.String(),
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					Title:   WorksheetName,
					GridProperties: &sheets.GridProperties{
						RowCount:    gridRows,
						ColumnCount: gridColumns,
					},
				},
			},
		},
	}
}

func (s *Sink) writeHeaders(ctx context.Context, spreadsheetID string) error {
	blocks := []struct {
		writeRange string
		values     []any
	}{
		{cellRange("A1:D1"), headerRow},
		{cellRange("F1:G1"), totalRow},
		{cellRange("F3:G3"), rollupTitleRow},
		{cellRange("F4:G4"), rollupHeaderRow},
	}

	for _, b := range blocks {
		if err := s.api.UpdateValues(ctx, spreadsheetID, b.writeRange, [][]any{b.values}); err != nil {
			return err
		}
	}
	return nil
}

// AppendExpense writes one expense into the next free data row and keeps the
// category rollup in sync. A full worksheet yields common.ErrCapacityExceeded
// and nothing is written.
func (s *Sink) AppendExpense(ctx context.Context, user *model.User, amount decimal.Decimal, category, description string) (service.AppendResult, error) {
	var result service.AppendResult

	if user == nil {
		return result, fmt.Errorf("append expense: %w", common.ErrNilParameter)
	}

	spreadsheetID, err := SpreadsheetIDFromURL(user.SpreadsheetURL)
	if err != nil {
		return result, err
	}

	existing, err := s.api.GetValues(ctx, spreadsheetID, dataColumnRange())
	if err != nil {
		return result, err
	}

	row := len(existing) + firstDataRow
	if row > lastDataRow {
		return result, fmt.Errorf("spreadsheet %s: %w", spreadsheetID, common.ErrCapacityExceeded)
	}

	values := [][]any{{
		s.now().In(s.location).Format("2006-01-02"),
		model.FormatMoney(amount),
		literal(category),
		literal(description),
	}}
	if err := s.api.UpdateValues(ctx, spreadsheetID, dataRowRange(row), values); err != nil {
		return result, err
	}
	result.Row = row

	if category == "" {
		return result, nil
	}

	rollupRow, err := s.upsertRollup(ctx, spreadsheetID, category)
	if err != nil {
		return result, err
	}
	if rollupRow == 0 {
		s.logger.Warn("category rollup is full, skipping",
			"spreadsheet_id", spreadsheetID,
			"category", category)
		result.RollupSkipped = true
		return result, nil
	}
	result.RollupRow = rollupRow

	return result, nil
}

// upsertRollup finds or adds the category label and rewrites its SUMIF
// formula. It returns 0 when the label is absent and the region is full.
func (s *Sink) upsertRollup(ctx context.Context, spreadsheetID, category string) (int, error) {
	labels, err := s.api.GetValues(ctx, spreadsheetID, rollupLabelsRange())
	if err != nil {
		return 0, err
	}

	row := 0
	for i, label := range labels {
		// SUMIF matches case-insensitively, so the lookup must too.
		if len(label) > 0 && strings.EqualFold(fmt.Sprint(label[0]), category) {
			row = firstRollupRow + i
			break
		}
	}

	if row == 0 {
		if len(labels) >= MaxRollupCategories {
			return 0, nil
		}
		row = firstRollupRow + len(labels)
		if err := s.api.UpdateValues(ctx, spreadsheetID, cellRange(fmt.Sprintf("F%d", row)), [][]any{{literal(category)}}); err != nil {
			return 0, err
		}
	}

	if err := s.api.UpdateValues(ctx, spreadsheetID, cellRange(fmt.Sprintf("G%d", row)), [][]any{{rollupFormula(row)}}); err != nil {
		return 0, err
	}
	return row, nil
}
