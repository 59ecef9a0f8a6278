package sheets

import (
	"fmt"
	"strings"
)

// ColumnLetter converts a 1-based column index to A1 letters (1 → A, 27 → AA).
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// QuoteSheet quotes a worksheet title for use in an A1 range.
func QuoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// CellRange returns the A1 range of a single cell, 1-based.
func CellRange(sheet string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", QuoteSheet(sheet), ColumnLetter(col), row)
}

// RowRange returns the A1 range of one full row.
func RowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!%d:%d", QuoteSheet(sheet), row, row)
}

// ColumnRange returns the A1 range of one full column.
func ColumnRange(sheet string, col int) string {
	letter := ColumnLetter(col)
	return fmt.Sprintf("%s!%s:%s", QuoteSheet(sheet), letter, letter)
}

// SheetRange returns the A1 range covering a whole worksheet.
func SheetRange(sheet string) string {
	return QuoteSheet(sheet)
}
