package leadstore

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryTable is an in-process Table. The mutex guards the grid only; it does
// not make a read followed by a write atomic.
type MemoryTable struct {
	mu   sync.Mutex
	grid [][]string
}

// NewMemoryTable returns a table holding a copy of rows (header first).
func NewMemoryTable(rows ...[]string) *MemoryTable {
	return &MemoryTable{grid: copyGrid(rows)}
}

// Snapshot returns a copy of every row including the header.
func (m *MemoryTable) Snapshot() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyGrid(m.grid)
}

func (m *MemoryTable) Header(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.grid) == 0 {
		return nil, nil
	}
	return append([]string(nil), m.grid[0]...), nil
}

func (m *MemoryTable) Rows(_ context.Context) ([][]string, error) {
	return m.Snapshot(), nil
}

func (m *MemoryTable) Column(_ context.Context, col int) ([]string, error) {
	if col < 1 {
		return nil, eris.Errorf("leadstore: invalid column %d", col)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.grid))
	for i, r := range m.grid {
		if col-1 < len(r) {
			out[i] = r[col-1]
		}
	}
	return out, nil
}

func (m *MemoryTable) Append(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid = append(m.grid, copyGrid(rows)...)
	return nil
}

func (m *MemoryTable) UpdateCell(_ context.Context, row, col int, value string) error {
	if row < 1 || col < 1 {
		return eris.Errorf("leadstore: invalid cell %d,%d", row, col)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.grid) < row {
		m.grid = append(m.grid, nil)
	}
	r := m.grid[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	m.grid[row-1] = r
	return nil
}

func copyGrid(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
