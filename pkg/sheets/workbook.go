package sheets

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Workbook is a Document backed by a local .xlsx file. Every mutation is
// saved before it returns. An empty path keeps the workbook in memory.
type Workbook struct {
	mu   sync.Mutex
	id   string
	path string
	file *excelize.File
}

// OpenWorkbook opens path, creating an empty workbook when it does not exist.
func OpenWorkbook(id, path string) (*Workbook, error) {
	if path == "" {
		return &Workbook{id: id, file: excelize.NewFile()}, nil
	}
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return &Workbook{id: id, path: path, file: f}, nil
}

func (w *Workbook) ID() string {
	return w.id
}

func (w *Workbook) save() error {
	if w.path == "" {
		return nil
	}
	return w.file.SaveAs(w.path)
}

func (w *Workbook) TableNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList(), nil
}

func (w *Workbook) AddTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.NewSheet(name); err != nil {
		return err
	}
	return w.save()
}

func (w *Workbook) ReadRange(ctx context.Context, rng Range) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	all, err := w.file.GetRows(rng.Table)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	first := max(rng.Row, 1) - 1
	if first >= len(all) {
		return nil, nil
	}
	last := len(all)
	if rng.Rows > 0 {
		last = min(last, rng.lastRow())
	}

	var rows [][]string
	for _, row := range all[first:last] {
		var cells []string
		if start := max(rng.Col, 1) - 1; start < len(row) {
			end := len(row)
			if rng.Cols > 0 {
				end = min(end, rng.lastCol())
			}
			cells = append(cells, row[start:end]...)
		}
		rows = append(rows, cells)
	}
	// Match the Sheets API: an open range ends at its last non-empty row.
	if rng.Rows == 0 {
		for len(rows) > 0 && isBlank(rows[len(rows)-1]) {
			rows = rows[:len(rows)-1]
		}
	}
	return pad(rows, rng.Cols), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func (w *Workbook) WriteRange(ctx context.Context, rng Range, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(max(rng.Col, 1)+j, max(rng.Row, 1)+i)
			if err != nil {
				return err
			}
			if err := w.file.SetCellStr(rng.Table, cell, v); err != nil {
				return err
			}
		}
	}
	return w.save()
}

func (w *Workbook) DeleteRow(ctx context.Context, table string, row int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.RemoveRow(table, row); err != nil {
		return err
	}
	return w.save()
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
