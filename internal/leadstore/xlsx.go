package leadstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// DefaultWorksheet names the worksheet created in a new workbook.
const DefaultWorksheet = "Leads"

// XLSXTable is a Table over one worksheet of a local workbook. Every call
// reopens the file and every write saves it before returning. A missing file
// reads as an empty store and is created on the first append.
type XLSXTable struct {
	mu        sync.Mutex
	path      string
	worksheet string
}

// NewXLSXTable returns a table over worksheet in the workbook at path. An
// empty worksheet selects the first sheet of an existing workbook, or
// DefaultWorksheet for a new one.
func NewXLSXTable(path, worksheet string) *XLSXTable {
	return &XLSXTable{path: path, worksheet: worksheet}
}

// Path returns the workbook path.
func (t *XLSXTable) Path() string {
	return t.path
}

func (t *XLSXTable) Header(ctx context.Context) ([]string, error) {
	rows, err := t.Rows(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (t *XLSXTable) Rows(_ context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, sheet, err := t.open(false)
	if err != nil || sheet == nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			if cell != nil {
				cells[j] = cell.String()
			}
		}
		rows = append(rows, cells)
	}
	return trimTrailingEmpty(rows), nil
}

func (t *XLSXTable) Column(ctx context.Context, col int) ([]string, error) {
	if col < 1 {
		return nil, eris.Errorf("xlsx: invalid column %d", col)
	}
	rows, err := t.Rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		if col-1 < len(r) {
			out[i] = r[col-1]
		}
	}
	return out, nil
}

func (t *XLSXTable) Append(_ context.Context, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, sheet, err := t.open(true)
	if err != nil {
		return err
	}

	// Drop trailing blank rows so appended data follows the last real row.
	used := usedRows(sheet)
	if used < len(sheet.Rows) {
		sheet.Rows = sheet.Rows[:used]
		sheet.MaxRow = used
	}

	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	return t.save(f)
}

func (t *XLSXTable) UpdateCell(_ context.Context, row, col int, value string) error {
	if row < 1 || col < 1 {
		return eris.Errorf("xlsx: invalid cell %d,%d", row, col)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	f, sheet, err := t.open(true)
	if err != nil {
		return err
	}
	sheet.Cell(row-1, col-1).SetString(value)
	return t.save(f)
}

// open loads the workbook and selects the worksheet. With create unset a
// missing file or sheet yields a nil sheet and no error.
func (t *XLSXTable) open(create bool) (*xlsx.File, *xlsx.Sheet, error) {
	var f *xlsx.File
	if _, err := os.Stat(t.path); errors.Is(err, fs.ErrNotExist) {
		if !create {
			return nil, nil, nil
		}
		f = xlsx.NewFile()
	} else {
		f, err = xlsx.OpenFile(t.path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "xlsx: open %s", t.path)
		}
	}

	if t.worksheet == "" && len(f.Sheets) > 0 {
		return f, f.Sheets[0], nil
	}

	name := t.worksheet
	if name == "" {
		name = DefaultWorksheet
	}
	if sheet, ok := f.Sheet[name]; ok {
		return f, sheet, nil
	}
	if !create {
		return f, nil, nil
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "xlsx: add sheet %s", name)
	}
	return f, sheet, nil
}

func (t *XLSXTable) save(f *xlsx.File) error {
	if err := f.Save(t.path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", t.path)
	}
	return nil
}

// checkWritable verifies the workbook can be opened, or that its directory
// exists when the file has not been created yet.
func (t *XLSXTable) checkWritable() error {
	if _, err := os.Stat(t.path); errors.Is(err, fs.ErrNotExist) {
		dir := filepath.Dir(t.path)
		if _, err := os.Stat(dir); err != nil {
			return eris.Wrapf(err, "xlsx: workbook directory %s", dir)
		}
		return nil
	}
	if _, err := xlsx.OpenFile(t.path); err != nil {
		return eris.Wrapf(err, "xlsx: open %s", t.path)
	}
	return nil
}

func usedRows(sheet *xlsx.Sheet) int {
	used := 0
	for i, row := range sheet.Rows {
		if row == nil {
			continue
		}
		for _, cell := range row.Cells {
			if cell != nil && cell.String() != "" {
				used = i + 1
				break
			}
		}
	}
	return used
}

func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && allEmpty(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func allEmpty(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
