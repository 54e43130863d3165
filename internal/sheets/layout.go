package sheets

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Veraticus/kopiyka/internal/common"
)

// Worksheet layout. Data rows live in A2:D1001; the running total sits in
// F1:G1 and the per-category rollup in F5:G20.
const (
	WorksheetName = "Витрати"

	gridRows    = 1002
	gridColumns = 20

	firstDataRow = 2
	lastDataRow  = 1001

	firstRollupRow = 5
	lastRollupRow  = 20

	// MaxRollupCategories is how many distinct categories the rollup can hold.
	MaxRollupCategories = lastRollupRow - firstRollupRow + 1
)

var (
	headerRow       = []any{"Дата", "Сума", "Категорія", "Опис"}
	totalRow        = []any{"Всього", fmt.Sprintf("=SUM(B%d:B%d)", firstDataRow, lastDataRow)}
	rollupTitleRow  = []any{"Аналітика по категоріям"}
	rollupHeaderRow = []any{"Категорія", "Сума"}
)

const spreadsheetURLPrefix = "https://docs.google.com/spreadsheets/d/"

func cellRange(a1 string) string {
	return WorksheetName + "!" + a1
}

func dataColumnRange() string {
	return cellRange(fmt.Sprintf("A%d:A%d", firstDataRow, lastDataRow))
}

func dataRowRange(row int) string {
	return cellRange(fmt.Sprintf("A%d:D%d", row, row))
}

func rollupLabelsRange() string {
	return cellRange(fmt.Sprintf("F%d:F%d", firstRollupRow, lastRollupRow))
}

// literal makes user-derived text stay text when written with USER_ENTERED:
// values Sheets would parse as a formula get a leading apostrophe.
func literal(text string) string {
	if text != "" && strings.ContainsRune("=+-@", rune(text[0])) {
		return "'" + text
	}
	return text
}

func rollupFormula(row int) string {
	return fmt.Sprintf("=SUMIF(C%d:C%d,F%d,B%d:B%d)", firstDataRow, lastDataRow, row, firstDataRow, lastDataRow)
}

// SpreadsheetURL returns the canonical link for a spreadsheet id.
func SpreadsheetURL(id string) string {
	return spreadsheetURLPrefix + id
}

// SpreadsheetIDFromURL extracts the spreadsheet id from a stored link.
// It accepts the canonical form as well as links with a trailing /edit suffix.
func SpreadsheetIDFromURL(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidSheetURL, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "spreadsheets" && parts[i+1] == "d" && parts[i+2] != "" {
			return parts[i+2], nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidSheetURL, link)
}
