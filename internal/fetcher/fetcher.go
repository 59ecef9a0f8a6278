// Package fetcher reads lead lists from CSV and XLSX files.
package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// Format identifies a lead file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = eris.New("fetcher: unsupported file format")

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Wrapf(ErrUnsupportedFormat, "%q", filepath.Base(path))
}

// ReadFile reads candidates from a CSV or XLSX file on disk.
func ReadFile(ctx context.Context, path string) ([]model.Candidate, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open file")
	}
	defer f.Close() //nolint:errcheck
	return Read(ctx, f, format)
}

// Read reads candidates from r in the given format. The first row must be a
// header naming at least a name or a phone column.
func Read(ctx context.Context, r io.Reader, format Format) ([]model.Candidate, error) {
	var rows [][]string
	switch format {
	case FormatCSV:
		rowCh, errCh := StreamCSV(ctx, r, CSVOptions{TrimSpace: true, LazyQuotes: true})
		for row := range rowCh {
			rows = append(rows, row)
		}
		if err := <-errCh; err != nil {
			return nil, err
		}
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read workbook")
		}
		rows, err = ReadXLSXBinary(data, XLSXOptions{})
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return CandidatesFromRows(rows[0], rows[1:])
}
