package patients

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"patientsheets/pkg/sheets"
)

// memDoc is an in-memory sheets.Document that mimics the Sheets API: open
// ranges stop at the last non-blank row and bounded ranges come back padded.
type memDoc struct {
	mu     sync.Mutex
	id     string
	names  []string
	tables map[string][][]string

	FailOn      map[string]error
	AddCalls    []string
	WriteCalls  []sheets.Range
	DeleteCalls []int
	ReadCalls   int
}

func newMemDoc(id string) *memDoc {
	return &memDoc{id: id, tables: make(map[string][][]string), FailOn: make(map[string]error)}
}

// withTable seeds a table with rows.
func (m *memDoc) withTable(name string, rows ...[]string) *memDoc {
	m.names = append(m.names, name)
	m.tables[name] = rows
	return m
}

func (m *memDoc) rows(name string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[name]
}

func (m *memDoc) ID() string { return m.id }

func (m *memDoc) TableNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["TableNames"]; err != nil {
		return nil, err
	}
	return slices.Clone(m.names), nil
}

func (m *memDoc) AddTable(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["AddTable"]; err != nil {
		return err
	}
	if _, ok := m.tables[name]; ok {
		return fmt.Errorf("sheet %q already exists", name)
	}
	m.AddCalls = append(m.AddCalls, name)
	m.names = append(m.names, name)
	m.tables[name] = nil
	return nil
}

func (m *memDoc) ReadRange(ctx context.Context, rng sheets.Range) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++
	if err := m.FailOn["ReadRange"]; err != nil {
		return nil, err
	}
	all, ok := m.tables[rng.Table]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", rng.A1())
	}
	first := rng.Row - 1
	last := len(all)
	if rng.Rows > 0 {
		last = min(last, rng.Row+rng.Rows-1)
	}
	var out [][]string
	for r := first; r < last; r++ {
		row := all[r]
		var cells []string
		for c := rng.Col - 1; c < len(row) && (rng.Cols == 0 || c < rng.Col-1+rng.Cols); c++ {
			cells = append(cells, row[c])
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}
	if rng.Rows == 0 {
		for len(out) > 0 && len(out[len(out)-1]) == 0 {
			out = out[:len(out)-1]
		}
	}
	for i := range out {
		if rng.Cols > 0 && len(out[i]) < rng.Cols {
			padded := make([]string, rng.Cols)
			copy(padded, out[i])
			out[i] = padded
		}
	}
	return out, nil
}

func (m *memDoc) WriteRange(ctx context.Context, rng sheets.Range, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["WriteRange"]; err != nil {
		return err
	}
	m.WriteCalls = append(m.WriteCalls, rng)
	table := m.tables[rng.Table]
	for i, row := range rows {
		r := rng.Row - 1 + i
		for len(table) <= r {
			table = append(table, nil)
		}
		for j, v := range row {
			c := rng.Col - 1 + j
			for len(table[r]) <= c {
				table[r] = append(table[r], "")
			}
			table[r][c] = v
		}
	}
	m.tables[rng.Table] = table
	return nil
}

func (m *memDoc) DeleteRow(ctx context.Context, table string, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailOn["DeleteRow"]; err != nil {
		return err
	}
	m.DeleteCalls = append(m.DeleteCalls, row)
	rows := m.tables[table]
	if row-1 < len(rows) {
		m.tables[table] = slices.Delete(rows, row-1, row)
	}
	return nil
}
