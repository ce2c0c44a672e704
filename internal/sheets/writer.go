package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/Veraticus/the-paper-trail/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer uploads ledgers to Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// target is the resolved spreadsheet and tab being written.
type target struct {
	spreadsheetID string
	sheetID       int64
}

// NewWriter creates a new Google Sheets ledger writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger.With("component", "sheets"),
	}, nil
}

// WriteLedger replaces the ledger tab with rows and returns the spreadsheet id.
func (w *Writer) WriteLedger(ctx context.Context, rows []model.TransactionRow, variant model.Variant) (string, error) {
	w.logger.Info("starting ledger upload", "rows", len(rows), "variant", string(variant))

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var t target
	err := common.WithRetry(ctx, func() error {
		var resolveErr error
		t, resolveErr = w.resolveTarget(ctx)
		return classifyAPIError(resolveErr)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, t.spreadsheetID); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := prepareLedgerValues(rows, variant)

	err = common.WithRetry(ctx, func() error {
		return classifyAPIError(w.writeData(ctx, t.spreadsheetID, values))
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classifyAPIError(w.applyFormatting(ctx, t, len(values)))
		}, retryOpts)
		if err != nil {
			// the data is already written
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("ledger upload completed",
		"spreadsheet_id", t.spreadsheetID,
		"rows_written", len(values))

	return t.spreadsheetID, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// resolveTarget opens the configured spreadsheet, adding the ledger tab when
// missing, or creates a new spreadsheet.
func (w *Writer) resolveTarget(ctx context.Context) (target, error) {
	if w.config.SpreadsheetID == "" {
		return w.createSpreadsheet(ctx)
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return target{}, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	if id, ok := findSheet(existing.Sheets, w.config.SheetTitle); ok {
		return target{spreadsheetID: existing.SpreadsheetId, sheetID: id}, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.config.SheetTitle},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return target{}, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	return target{spreadsheetID: existing.SpreadsheetId, sheetID: sheetID}, nil
}

func (w *Writer) createSpreadsheet(ctx context.Context) (target, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return target{}, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	id, _ := findSheet(created.Sheets, w.config.SheetTitle)
	return target{spreadsheetID: created.SpreadsheetId, sheetID: id}, nil
}

func findSheet(tabs []*sheets.Sheet, title string) (int64, bool) {
	for _, s := range tabs {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}

func (w *Writer) sheetRange(cell string) string {
	return fmt.Sprintf("'%s'!%s", w.config.SheetTitle, cell)
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.sheetRange("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareLedgerValues lays out a header row followed by one row per
// transaction. Amounts are numbers so the sheet can total them.
func prepareLedgerValues(rows []model.TransactionRow, variant model.Variant) [][]any {
	inflow, outflow := variant.Labels()
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Date", "TransactionDetail", inflow, outflow, "Filename"})

	for _, r := range rows {
		date := r.RawDate
		if !r.Date.IsZero() {
			date = r.Date.Format("2006-01-02")
		}
		values = append(values, []any{
			date,
			r.TransactionDetail,
			amountCell(r.Inflow.Valid, r.Inflow.Decimal.InexactFloat64()),
			amountCell(r.Outflow.Valid, r.Outflow.Decimal.InexactFloat64()),
			r.Filename,
		})
	}

	return values
}

func amountCell(valid bool, v float64) any {
	if !valid {
		return ""
	}
	return v
}

// writeData writes the values in batches to stay under API limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, w.sheetRange(fmt.Sprintf("A%d", i+1)), &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, t target, totalRows int) error {
	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: formattingRequests(t.sheetID, totalRows),
	}

	_, err := w.service.Spreadsheets.BatchUpdate(t.spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

// formattingRequests bolds and freezes the header, formats the two amount
// columns and resizes every column.
func formattingRequests(sheetID int64, totalRows int) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   5,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 2,
					EndColumnIndex:   4,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "NUMBER",
							Pattern: "#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   5,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
}

// classifyAPIError marks Google API failures for common.WithRetry. Throttling
// and server errors are retried; other client errors will not succeed on a
// second attempt.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrRateLimit, err), Retryable: true}
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	case apiErr.Code >= http.StatusBadRequest:
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}
