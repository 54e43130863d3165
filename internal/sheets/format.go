package sheets

import (
	"google.golang.org/api/sheets/v4"
)

const currencyPattern = "₴#,##0.00"

var (
	headerBackground = &sheets.Color{Red: 0.2, Green: 0.4, Blue: 0.8}
	headerForeground = &sheets.Color{Red: 1, Green: 1, Blue: 1}
	totalBackground  = &sheets.Color{Red: 0.95, Green: 0.95, Blue: 0.95}
	stripeBackground = &sheets.Color{Red: 0.95, Green: 0.95, Blue: 1}
	outerBorderColor = &sheets.Color{Red: 0.8, Green: 0.8, Blue: 0.8}
	innerBorderColor = &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9}
)

func gridRange(startRow, endRow, startCol, endCol int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          0,
		StartRowIndex:    startRow,
		EndRowIndex:      endRow,
		StartColumnIndex: startCol,
		EndColumnIndex:   endCol,
	}
}

func columns(start, end int64) *sheets.DimensionRange {
	return &sheets.DimensionRange{
		SheetId:    0,
		Dimension:  "COLUMNS",
		StartIndex: start,
		EndIndex:   end,
	}
}

func headerFormat(r *sheets.GridRange) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: r,
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					BackgroundColor: headerBackground,
					TextFormat: &sheets.TextFormat{
						ForegroundColor: headerForeground,
						Bold:            true,
						FontSize:        12,
					},
					HorizontalAlignment: "CENTER",
					VerticalAlignment:   "MIDDLE",
				},
			},
			Fields: "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment,verticalAlignment)",
		},
	}
}

func numberFormat(r *sheets.GridRange, kind, pattern string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: r,
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{Type: kind, Pattern: pattern},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

func columnWidth(start, end, pixels int64) *sheets.Request {
	return &sheets.Request{
		UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range:      columns(start, end),
			Properties: &sheets.DimensionProperties{PixelSize: pixels},
			Fields:     "pixelSize",
		},
	}
}

func border(color *sheets.Color) *sheets.Border {
	return &sheets.Border{Style: "SOLID", Width: 1, Color: color}
}

// formatRequests styles a freshly created expense worksheet.
func formatRequests() []*sheets.Request {
	data := func(startCol, endCol int64) *sheets.GridRange {
		return gridRange(firstDataRow-1, lastDataRow, startCol, endCol)
	}

	return []*sheets.Request{
		headerFormat(gridRange(0, 1, 0, 4)), // A1:D1
		headerFormat(gridRange(0, 1, 5, 7)), // F1:G1
		headerFormat(gridRange(2, 3, 5, 7)), // F3:G3
		headerFormat(gridRange(3, 4, 5, 7)), // F4:G4
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{Dimensions: columns(0, 7)},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(0, 1, 6, 7),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: totalBackground,
						TextFormat:      &sheets.TextFormat{Bold: true, FontSize: 12},
						NumberFormat:    &sheets.NumberFormat{Type: "CURRENCY", Pattern: currencyPattern},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat,numberFormat)",
			},
		},
		numberFormat(data(1, 2), "CURRENCY", currencyPattern),
		numberFormat(data(0, 1), "DATE", "yyyy-mm-dd"),
		{
			UpdateBorders: &sheets.UpdateBordersRequest{
				Range:           gridRange(0, lastDataRow, 0, 4),
				Top:             border(outerBorderColor),
				Bottom:          border(outerBorderColor),
				Left:            border(outerBorderColor),
				Right:           border(outerBorderColor),
				InnerHorizontal: border(innerBorderColor),
				InnerVertical:   border(innerBorderColor),
			},
		},
		{
			AddConditionalFormatRule: &sheets.AddConditionalFormatRuleRequest{
				Rule: &sheets.ConditionalFormatRule{
					Ranges: []*sheets.GridRange{data(0, 4)},
					BooleanRule: &sheets.BooleanRule{
						Condition: &sheets.BooleanCondition{
							Type:   "CUSTOM_FORMULA",
							Values: []*sheets.ConditionValue{{UserEnteredValue: "=MOD(ROW(),2)=0"}},
						},
						Format: &sheets.CellFormat{BackgroundColor: stripeBackground},
					},
				},
				Index: 0,
			},
		},
		columnWidth(3, 4, 300),
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: data(3, 4),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{WrapStrategy: "WRAP"},
				},
				Fields: "userEnteredFormat.wrapStrategy",
			},
		},
		columnWidth(0, 3, 120),
		columnWidth(6, 7, 150),
	}
}
