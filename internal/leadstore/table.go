// Package leadstore reads and writes leads in a tabular store whose first
// row holds the column headers. Google Sheets is the production backend;
// local XLSX workbooks and Notion databases are supported for development
// and teams that keep leads there.
//
// Row positions are only valid between a read and the next write to the same
// store. Nothing here serializes writers: two processes appending at once can
// both succeed and interleave.
package leadstore

import "context"

// Table is a grid addressed with 1-based rows and columns. Row 1 is the
// header row.
type Table interface {
	// Header returns row 1, or nil for an empty store.
	Header(ctx context.Context) ([]string, error)
	// Rows returns every row including the header at index 0. Rows may be
	// shorter than the header when trailing cells are blank.
	Rows(ctx context.Context) ([][]string, error)
	// Column returns every value of a column, header at index 0.
	Column(ctx context.Context, col int) ([]string, error)
	// Append writes rows after the last non-empty row in a single call.
	Append(ctx context.Context, rows [][]string) error
	// UpdateCell overwrites one cell.
	UpdateCell(ctx context.Context, row, col int, value string) error
}
