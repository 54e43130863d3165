package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// spreadsheetAPI is the slice of the Sheets and Drive APIs the sink needs.
type spreadsheetAPI interface {
	Create(ctx context.Context, spreadsheet *sheets.Spreadsheet) (string, error)
	ShareReadable(ctx context.Context, spreadsheetID string) error
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]any, error)
	UpdateValues(ctx context.Context, spreadsheetID, writeRange string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

type googleAPI struct {
	sheets *sheets.Service
	drive  *drive.Service
}

var scopes = []string{sheets.SpreadsheetsScope, drive.DriveScope}

// newGoogleAPI builds Sheets and Drive clients sharing one token source.
func newGoogleAPI(ctx context.Context, config Config) (*googleAPI, error) {
	tokenSource, err := newTokenSource(ctx, config)
	if err != nil {
		return nil, err
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)

	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &googleAPI{sheets: sheetsSrv, drive: driveSrv}, nil
}

func newTokenSource(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		return jwtConfig.TokenSource(ctx), nil
	}

	client := oauthConfig(config.ClientID, config.ClientSecret, "")
	token := &oauth2.Token{
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
	}
	return client.TokenSource(ctx, token), nil
}

func (g *googleAPI) Create(ctx context.Context, spreadsheet *sheets.Spreadsheet) (string, error) {
	created, err := g.sheets.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}
	return created.SpreadsheetId, nil
}

func (g *googleAPI) ShareReadable(ctx context.Context, spreadsheetID string) error {
	permission := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := g.drive.Permissions.Create(spreadsheetID, permission).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to share spreadsheet: %w", err)
	}
	return nil
}

func (g *googleAPI) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]any, error) {
	resp, err := g.sheets.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", readRange, err)
	}
	return resp.Values, nil
}

func (g *googleAPI) UpdateValues(ctx context.Context, spreadsheetID, writeRange string, values [][]any) error {
	body := &sheets.ValueRange{Values: values}
	_, err := g.sheets.Spreadsheets.Values.Update(spreadsheetID, writeRange, body).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to write %s: %w", writeRange, err)
	}
	return nil
}

func (g *googleAPI) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := g.sheets.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to apply batch update: %w", err)
	}
	return nil
}
