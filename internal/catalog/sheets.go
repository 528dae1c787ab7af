package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// requestIDColumn is the A1-notation column holding Record.RequestID,
// position 6 in Columns.
const requestIDColumn = "F"

// SheetsWriter appends catalog rows to a Google Sheets spreadsheet, the
// shared store the team already works in. The underlying append is
// at-least-once, so every Append starts with an existence check on the
// request ID column.
type SheetsWriter struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsWriter builds a writer authenticated with a service account
// credentials file.
func NewSheetsWriter(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_ID is required for the sheets backend")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// Append writes rec as a new row and returns its row number. A row already
// holding rec.RequestID is returned as-is, collapsing store-level or
// orchestrator-level retries into one logical append.
func (w *SheetsWriter) Append(ctx context.Context, rec Record) (string, error) {
	if err := w.checkHeaders(ctx); err != nil {
		return "", err
	}

	if rowID, found, err := w.Find(ctx, rec.RequestID); err != nil {
		return "", err
	} else if found {
		slog.Info("Catalog row already exists, skipping append", "request_id", rec.RequestID, "row_id", rowID)
		return rowID, nil
	}

	cells := rec.Row()
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	resp, err := w.svc.Spreadsheets.Values.
		Append(w.spreadsheetID, w.sheetName, &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", &StoreError{Reason: Unavailable, Err: fmt.Errorf("append failed: %w", err)}
	}

	rowID, err := rowIDFromRange(resp.Updates.UpdatedRange)
	if err != nil {
		return "", &StoreError{Reason: Unavailable, Err: err}
	}

	slog.Info("Catalog row appended", "request_id", rec.RequestID, "row_id", rowID, "sheet", w.sheetName)
	return rowID, nil
}

// Find scans the request ID column for requestID.
func (w *SheetsWriter) Find(ctx context.Context, requestID string) (string, bool, error) {
	readRange := fmt.Sprintf("%s!%s2:%s", w.sheetName, requestIDColumn, requestIDColumn)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return "", false, &StoreError{Reason: Unavailable, Err: fmt.Errorf("lookup failed: %w", err)}
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v, ok := row[0].(string); ok && v == requestID {
			return strconv.Itoa(i + 2), true, nil // +2: 1-based rows plus header
		}
	}
	return "", false, nil
}

// EnsureHeaders writes the schema header row into an empty sheet. A present
// but different header is a schema mismatch, never overwritten.
func (w *SheetsWriter) EnsureHeaders(ctx context.Context) error {
	header, err := w.readHeader(ctx)
	if err != nil {
		return err
	}

	if len(header) == 0 {
		values := make([]interface{}, len(Columns))
		for i, c := range Columns {
			values[i] = c
		}
		_, err := w.svc.Spreadsheets.Values.
			Update(w.spreadsheetID, w.sheetName+"!1:1", &sheets.ValueRange{Values: [][]interface{}{values}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return &StoreError{Reason: Unavailable, Err: fmt.Errorf("failed to write headers: %w", err)}
		}
		slog.Info("Sheet headers created", "sheet", w.sheetName)
		return nil
	}

	return matchHeader(header)
}

// Count returns the number of data rows.
func (w *SheetsWriter) Count(ctx context.Context) (int, error) {
	readRange := fmt.Sprintf("%s!%s2:%s", w.sheetName, requestIDColumn, requestIDColumn)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return 0, &StoreError{Reason: Unavailable, Err: err}
	}
	return len(resp.Values), nil
}

func (w *SheetsWriter) checkHeaders(ctx context.Context) error {
	header, err := w.readHeader(ctx)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return &StoreError{
			Reason: SchemaMismatch,
			Err:    fmt.Errorf("sheet %s has no header row; run `store init` first", w.sheetName),
		}
	}
	return matchHeader(header)
}

func (w *SheetsWriter) readHeader(ctx context.Context) ([]string, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.sheetName+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, &StoreError{Reason: Unavailable, Err: fmt.Errorf("failed to read header row: %w", err)}
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	var header []string
	for _, cell := range resp.Values[0] {
		if s, ok := cell.(string); ok {
			header = append(header, s)
		}
	}
	return header, nil
}

func matchHeader(header []string) error {
	if len(header) != len(Columns) {
		return &StoreError{
			Reason: SchemaMismatch,
			Err:    fmt.Errorf("header has %d columns, expected %d", len(header), len(Columns)),
		}
	}
	for i, col := range Columns {
		if header[i] != col {
			return &StoreError{
				Reason: SchemaMismatch,
				Err:    fmt.Errorf("header column %d is %q, expected %q", i+1, header[i], col),
			}
		}
	}
	return nil
}

// rowIDFromRange extracts the row number from an A1 range like "Sheet1!A5:G5".
func rowIDFromRange(a1 string) (string, error) {
	if idx := strings.LastIndex(a1, "!"); idx != -1 {
		a1 = a1[idx+1:]
	}
	if idx := strings.Index(a1, ":"); idx != -1 {
		a1 = a1[:idx]
	}
	digits := strings.TrimLeftFunc(a1, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if digits == "" {
		return "", fmt.Errorf("could not determine appended row from range %q", a1)
	}
	return digits, nil
}
