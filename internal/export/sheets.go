// Package export writes alert reports to Google Sheets.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"asistencia/internal/models"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

// Headers are the column titles of an exported report.
var Headers = []string{
	"Documento",
	"Nombre",
	"Aprendiz ID",
	"Ausencias consecutivas",
	"Ausencias en el mes",
	"Criterio",
}

// SheetsWriter writes reports into one spreadsheet, one sheet per ficha and month.
type SheetsWriter struct {
	sheetsService    *sheets.Service
	spreadsheetID    string
	retryMaxAttempts int
	retryDelay       time.Duration
}

// NewSheetsWriter authenticates with a service account credentials file.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsFile string) (*SheetsWriter, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to configure JWT from credentials: %w", err)
	}

	return newSheetsWriter(ctx, spreadsheetID, option.WithHTTPClient(jwtConfig.Client(ctx)))
}

func newSheetsWriter(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsWriter, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Sheets API client: %w", err)
	}

	return &SheetsWriter{
		sheetsService:    svc,
		spreadsheetID:    spreadsheetID,
		retryMaxAttempts: defaultRetryAttempts,
		retryDelay:       defaultRetryDelay,
	}, nil
}

// SheetName returns the sheet a report is written to, e.g. "2675432 2024-05".
func SheetName(r *models.AlertReport) string {
	return r.NumeroFicha + " " + r.Mes.String()
}

// Rows converts the alerts of a report into sheet rows, in report order.
func Rows(r *models.AlertReport) [][]any {
	rows := make([][]any, 0, len(r.Alertas))
	for _, a := range r.Alertas {
		rows = append(rows, []any{
			a.Documento,
			a.Nombre,
			a.StudentID.String(),
			a.ConsecutiveUnjustifiedCount,
			a.MonthlyUnjustifiedCount,
			string(a.Criterion),
		})
	}
	return rows
}

// ExportReport replaces the contents of the report's sheet with the report.
// It returns the sheet name and the number of rows written, header included.
func (w *SheetsWriter) ExportReport(ctx context.Context, r *models.AlertReport) (string, int, error) {
	name := SheetName(r)

	if err := w.EnsureSheetExists(ctx, name); err != nil {
		return "", 0, err
	}
	if err := w.Clear(ctx, name); err != nil {
		return "", 0, err
	}
	if err := w.SetHeaders(ctx, name, Headers); err != nil {
		return "", 0, err
	}

	rows := Rows(r)
	if err := w.AppendRows(ctx, name, rows); err != nil {
		return "", 0, err
	}
	return name, len(rows) + 1, nil
}

// Clear empties the sheet.
func (w *SheetsWriter) Clear(ctx context.Context, sheetName string) error {
	clearRange := fmt.Sprintf("'%s'!A1:ZZ", sheetName)

	err := w.executeSheetsCall(ctx, func() error {
		_, err := w.sheetsService.Spreadsheets.Values.Clear(w.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	}, "clear "+clearRange)
	if err != nil {
		return fmt.Errorf("failed to clear range '%s': %w", clearRange, err)
	}
	return nil
}

// SetHeaders writes the header row at A1.
func (w *SheetsWriter) SetHeaders(ctx context.Context, sheetName string, headers []string) error {
	writeRange := fmt.Sprintf("'%s'!A1", sheetName)
	row := make([]any, 0, len(headers))
	for _, h := range headers {
		row = append(row, h)
	}

	err := w.executeSheetsCall(ctx, func() error {
		_, err := w.sheetsService.Spreadsheets.Values.Update(w.spreadsheetID, writeRange, &sheets.ValueRange{Values: [][]any{row}}).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	}, "set headers "+writeRange)
	if err != nil {
		return fmt.Errorf("failed to set headers at '%s': %w", writeRange, err)
	}
	return nil
}

// AppendRows appends rows after the last non-empty row of the sheet.
func (w *SheetsWriter) AppendRows(ctx context.Context, sheetName string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	appendRange := fmt.Sprintf("'%s'", sheetName)
	err := w.executeSheetsCall(ctx, func() error {
		_, err := w.sheetsService.Spreadsheets.Values.Append(w.spreadsheetID, appendRange, &sheets.ValueRange{Values: rows}).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	}, fmt.Sprintf("append %d rows to %s", len(rows), appendRange))
	if err != nil {
		return fmt.Errorf("failed to append %d rows to sheet '%s': %w", len(rows), sheetName, err)
	}
	return nil
}

// EnsureSheetExists creates the sheet when the spreadsheet has no sheet with that title.
func (w *SheetsWriter) EnsureSheetExists(ctx context.Context, sheetName string) error {
	var spreadsheet *sheets.Spreadsheet
	err := w.executeSheetsCall(ctx, func() error {
		var err error
		spreadsheet, err = w.sheetsService.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	}, "get spreadsheet")
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet '%s': %w", w.spreadsheetID, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			},
		}},
	}
	err = w.executeSheetsCall(ctx, func() error {
		_, err := w.sheetsService.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
		return err
	}, "create sheet "+sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", sheetName, err)
	}

	log.Printf("Sheets export: created sheet '%s'", sheetName)
	return nil
}

func isRetryableSheetsError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	switch {
	case apiErr.Code >= 500 && apiErr.Code < 600:
		return true
	case apiErr.Code == 429:
		return true
	case apiErr.Code == 403 && strings.Contains(strings.ToLower(apiErr.Message), "ratelimitexceeded"):
		return true
	}
	return false
}

// executeSheetsCall runs callFunc, retrying quota and server errors with
// exponential backoff.
func (w *SheetsWriter) executeSheetsCall(ctx context.Context, callFunc func() error, operationDesc string) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("operation '%s' cancelled: %w", operationDesc, err)
		}

		err := callFunc()
		if err == nil {
			return nil
		}
		if !isRetryableSheetsError(err) || attempt >= w.retryMaxAttempts {
			return fmt.Errorf("operation '%s' failed after %d attempts: %w", operationDesc, attempt+1, err)
		}

		delay := w.retryDelay * time.Duration(1<<attempt)
		log.Printf("Sheets export: '%s' failed (attempt %d/%d): %v, retrying in %s",
			operationDesc, attempt+1, w.retryMaxAttempts+1, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("operation '%s' cancelled during retry wait: %w", operationDesc, ctx.Err())
		}
	}
}
