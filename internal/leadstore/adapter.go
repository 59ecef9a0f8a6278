package leadstore

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// Adapter exposes lead-level operations over a Table. One Adapter holds one
// backend client for its whole lifetime.
type Adapter struct {
	table Table
}

// NewAdapter wraps t.
func NewAdapter(t Table) *Adapter {
	return &Adapter{table: t}
}

// Table returns the underlying table.
func (a *Adapter) Table() Table {
	return a.table
}

// LoadAll returns every data row as a lead. A store that is empty or has no
// Status header yields an empty slice and no error.
func (a *Adapter) LoadAll(ctx context.Context) ([]model.Lead, error) {
	rows, err := a.table.Rows(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "leadstore: load all")
	}
	if len(rows) == 0 || indexOf(rows[0], model.ColumnStatus) < 0 {
		return []model.Lead{}, nil
	}
	return parseRows(rows), nil
}

// LoadNew returns the leads whose Status is exactly "New".
func (a *Adapter) LoadNew(ctx context.Context) ([]model.Lead, error) {
	all, err := a.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Lead, 0, len(all))
	for _, l := range all {
		if l.Status == model.StatusNew {
			out = append(out, l)
		}
	}
	return out, nil
}

// ExistingPhones returns the raw Phone value of every data row, whatever the
// Status column holds. A store without a Phone header yields an empty slice.
func (a *Adapter) ExistingPhones(ctx context.Context) ([]string, error) {
	rows, err := a.table.Rows(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "leadstore: load phones")
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	col := indexOf(rows[0], model.ColumnPhone)
	if col < 0 {
		return []string{}, nil
	}
	phones := make([]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if col < len(r) {
			phones = append(phones, r[col])
		} else {
			phones = append(phones, "")
		}
	}
	return phones, nil
}

// AppendRows appends leads in order with one bulk write. Values follow the
// store's header order when it has all canonical columns and the canonical
// Name, Phone, Status, Notes order otherwise. An empty store gets the header
// row in the same write.
func (a *Adapter) AppendRows(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	header, err := a.table.Header(ctx)
	if err != nil {
		return eris.Wrap(err, "leadstore: read header")
	}

	batch := make([][]string, 0, len(leads)+1)
	layout := header
	if len(header) == 0 {
		batch = append(batch, append([]string(nil), model.Columns...))
		layout = model.Columns
	} else if !hasColumns(header, model.Columns) {
		layout = model.Columns
	}

	for _, l := range leads {
		row := make([]string, len(layout))
		for j, h := range layout {
			row[j] = l.Field(h)
		}
		batch = append(batch, row)
	}

	if err := a.table.Append(ctx, batch); err != nil {
		return eris.Wrapf(err, "leadstore: append %d rows", len(leads))
	}
	return nil
}

// UpdateStatusAt sets the Status of the data row at index, 0-based with the
// header excluded. The Status column is looked up on every call. index must
// come from a read made just before with no other writer in between; the
// store cannot detect a stale index.
func (a *Adapter) UpdateStatusAt(ctx context.Context, index int, status string) error {
	if index < 0 {
		return eris.Wrapf(ErrInvalidIndex, "index %d", index)
	}
	col, err := a.FindHeaderColumn(ctx, model.ColumnStatus)
	if err != nil {
		return err
	}
	if err := a.table.UpdateCell(ctx, index+2, col, status); err != nil {
		return eris.Wrapf(err, "leadstore: update status of row %d", index)
	}
	return nil
}

// Header returns the header row as stored. An empty store has no header.
func (a *Adapter) Header(ctx context.Context) ([]string, error) {
	header, err := a.table.Header(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "leadstore: read header")
	}
	return header, nil
}

// FindHeaderColumn returns the 1-based column of the header with exactly the
// given name, or a *ColumnNotFoundError.
func (a *Adapter) FindHeaderColumn(ctx context.Context, name string) (int, error) {
	header, err := a.table.Header(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "leadstore: read header")
	}
	i := indexOf(header, name)
	if i < 0 {
		return 0, &ColumnNotFoundError{Name: name}
	}
	return i + 1, nil
}

// ColumnValues returns every value of a 1-based column, header at index 0.
func (a *Adapter) ColumnValues(ctx context.Context, col int) ([]string, error) {
	values, err := a.table.Column(ctx, col)
	if err != nil {
		return nil, eris.Wrapf(err, "leadstore: read column %d", col)
	}
	return values, nil
}

// SetCell overwrites one cell by 1-based sheet coordinates.
func (a *Adapter) SetCell(ctx context.Context, row, col int, value string) error {
	if err := a.table.UpdateCell(ctx, row, col, value); err != nil {
		return eris.Wrapf(err, "leadstore: update cell %d,%d", row, col)
	}
	return nil
}

func parseRows(rows [][]string) []model.Lead {
	header := rows[0]
	leads := make([]model.Lead, 0, len(rows)-1)
	for i, r := range rows[1:] {
		rec := make(map[string]string, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if j < len(r) {
				rec[h] = r[j]
			} else {
				rec[h] = ""
			}
		}
		leads = append(leads, model.LeadFromRecord(i, rec))
	}
	return leads
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func hasColumns(header, names []string) bool {
	for _, n := range names {
		if indexOf(header, n) < 0 {
			return false
		}
	}
	return true
}
