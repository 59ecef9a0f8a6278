package leadstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	s, err := f.AddSheet(sheet)
	require.NoError(t, err)
	for _, values := range rows {
		row := s.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXTable_MissingFileReadsEmpty(t *testing.T) {
	tbl := NewXLSXTable(filepath.Join(t.TempDir(), "none.xlsx"), "")
	ctx := context.Background()

	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	h, err := tbl.Header(ctx)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestXLSXTable_AppendCreatesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.xlsx")
	a := NewAdapter(NewXLSXTable(path, ""))
	ctx := context.Background()

	require.NoError(t, a.AppendRows(ctx, []model.Lead{{Name: "Acme", Phone: "555-123-4567", Status: "New"}}))

	// A fresh table instance sees what the first one saved.
	reread := NewXLSXTable(path, DefaultWorksheet)
	rows, err := reread.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.Columns, rows[0])
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "New", rows[1][2])
}

func TestXLSXTable_ExistingWorkbook(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{
		canonical,
		{"Acme", "555-123-4567", "New", ""},
	})
	tbl := NewXLSXTable(path, "")
	a := NewAdapter(tbl)
	ctx := context.Background()

	leads, err := a.LoadNew(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme", leads[0].Name)

	require.NoError(t, a.AppendRows(ctx, []model.Lead{{Name: "Beta", Phone: "111", Status: "New"}}))
	require.NoError(t, a.UpdateStatusAt(ctx, 0, "Contacted"))

	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Contacted", rows[1][2])
	assert.Equal(t, "Beta", rows[2][0])

	col, err := tbl.Column(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Phone", "555-123-4567", "111"}, col)
}

func TestXLSXTable_NamedWorksheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]string{{"unrelated"}})
	tbl := NewXLSXTable(path, "Leads")
	ctx := context.Background()

	rows, err := tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "missing worksheet reads as empty")

	require.NoError(t, tbl.Append(ctx, [][]string{canonical}))
	rows, err = tbl.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{canonical}, rows)

	other, err := NewXLSXTable(path, "Sheet1").Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"unrelated"}}, other)
}

func TestXLSXTable_InvalidCoordinates(t *testing.T) {
	tbl := NewXLSXTable(filepath.Join(t.TempDir(), "x.xlsx"), "")
	assert.Error(t, tbl.UpdateCell(context.Background(), 0, 1, "x"))
	_, err := tbl.Column(context.Background(), 0)
	assert.Error(t, err)
}

func TestXLSXTable_CheckWritable(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewXLSXTable(filepath.Join(dir, "new.xlsx"), "").checkWritable())
	assert.Error(t, NewXLSXTable(filepath.Join(dir, "missing", "new.xlsx"), "").checkWritable())
}

func TestTrimTrailingEmpty(t *testing.T) {
	rows := [][]string{{"a"}, {"", ""}, {"b"}, {""}, nil}
	assert.Equal(t, [][]string{{"a"}, {"", ""}, {"b"}}, trimTrailingEmpty(rows))
}
