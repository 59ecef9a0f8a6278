package leadstore

import (
	"context"

	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
	"github.com/xRamax/scrapper-violet-wave/pkg/sheets"
)

// SheetTable is a Table over one worksheet of a Google spreadsheet.
type SheetTable struct {
	client        sheets.Client
	spreadsheetID string
	worksheet     string
	retry         resilience.RetryConfig
}

// NewSheetTable returns a table over worksheet of the given spreadsheet.
func NewSheetTable(client sheets.Client, spreadsheetID, worksheet string, retry resilience.RetryConfig) *SheetTable {
	return &SheetTable{
		client:        client,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		retry:         retry,
	}
}

// SpreadsheetID returns the ID of the underlying spreadsheet.
func (t *SheetTable) SpreadsheetID() string {
	return t.spreadsheetID
}

func (t *SheetTable) Header(ctx context.Context) ([]string, error) {
	rows, err := resilience.DoVal(ctx, t.idempotent("get_header"), func(ctx context.Context) ([][]string, error) {
		return t.client.GetValues(ctx, t.spreadsheetID, sheets.RowRange(t.worksheet, 1))
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (t *SheetTable) Rows(ctx context.Context) ([][]string, error) {
	return resilience.DoVal(ctx, t.idempotent("get_rows"), func(ctx context.Context) ([][]string, error) {
		return t.client.GetValues(ctx, t.spreadsheetID, sheets.SheetRange(t.worksheet))
	})
}

func (t *SheetTable) Column(ctx context.Context, col int) ([]string, error) {
	return resilience.DoVal(ctx, t.idempotent("get_column"), func(ctx context.Context) ([]string, error) {
		return t.client.GetColumn(ctx, t.spreadsheetID, sheets.ColumnRange(t.worksheet, col))
	})
}

// Append is retried only when the API rejected the request outright (429);
// retrying a 5xx could write the rows twice.
func (t *SheetTable) Append(ctx context.Context, rows [][]string) error {
	cfg := t.retry
	cfg.ShouldRetry = isRateLimited
	cfg.OnRetry = resilience.RetryLogger("sheets", "append_values")
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return t.client.AppendValues(ctx, t.spreadsheetID, sheets.CellRange(t.worksheet, 1, 1), rows)
	})
}

func (t *SheetTable) UpdateCell(ctx context.Context, row, col int, value string) error {
	return resilience.Do(ctx, t.idempotent("update_values"), func(ctx context.Context) error {
		return t.client.UpdateValues(ctx, t.spreadsheetID, sheets.CellRange(t.worksheet, row, col), [][]string{{value}})
	})
}

func (t *SheetTable) idempotent(op string) resilience.RetryConfig {
	cfg := t.retry
	cfg.ShouldRetry = isRetryable
	cfg.OnRetry = resilience.RetryLogger("sheets", op)
	return cfg
}
