// Package google appends exported ledger events to a Google Sheets
// spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendsight/internal/amqp"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client from service account credentials. Credentials
// come from credentialsFile, or when empty from GOOGLE_SERVICE_ACCOUNT_JSON
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName, credentialsFile string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	if sheetName == "" {
		return nil, errors.New("sheet name is required")
	}

	credentialsJSON, err := loadCredentials(credentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(credentialsFile string) ([]byte, error) {
	if credentialsFile == "" {
		if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
			return []byte(inline), nil
		}
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if credentialsFile == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_FILE, GOOGLE_SERVICE_ACCOUNT_JSON, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

// AppendTransaction appends one row per event to the configured sheet.
func (c *Client) AppendTransaction(ctx context.Context, event *amqp.TransactionEvent) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		event.Timestamp.Format("2006-01-02 15:04:05"),
		event.Op,
		event.Kind,
		event.ID,
		event.AccountID,
		event.Amount,
		event.Description,
		event.Date,
	}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	return nil
}
