package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Document is an authorized handle on one spreadsheet document. A table is a
// named sheet (tab) inside it. Row and column numbers are 1-based.
type Document interface {
	ID() string
	TableNames(ctx context.Context) ([]string, error)
	AddTable(ctx context.Context, name string) error
	ReadRange(ctx context.Context, rng Range) ([][]string, error)
	WriteRange(ctx context.Context, rng Range, rows [][]string) error
	DeleteRow(ctx context.Context, table string, row int) error
}

// Range addresses a rectangle inside a table. Rows == 0 means "down to the
// last populated row" and Cols == 0 means "every column".
type Range struct {
	Table string
	Row   int
	Col   int
	Rows  int
	Cols  int
}

// WholeTable addresses every populated cell of a table.
func WholeTable(table string) Range {
	return Range{Table: table, Row: 1, Col: 1}
}

// Column addresses one column from the first row down.
func Column(table string, col int) Range {
	return Range{Table: table, Row: 1, Col: col, Cols: 1}
}

// RowSpan addresses cols cells of a single row starting at column A.
func RowSpan(table string, row, cols int) Range {
	return Range{Table: table, Row: row, Col: 1, Rows: 1, Cols: cols}
}

func (r Range) lastRow() int {
	if r.Rows == 0 {
		return 0
	}
	return r.Row + r.Rows - 1
}

func (r Range) lastCol() int {
	if r.Cols == 0 {
		return 0
	}
	return r.Col + r.Cols - 1
}

// A1 renders the range in A1 notation, e.g. 'PatientData'!A2:O2.
func (r Range) A1() string {
	table := "'" + strings.ReplaceAll(r.Table, "'", "''") + "'"
	switch {
	case r.Cols == 0 && r.Rows == 0:
		// Open in both directions: callers drop rows above r.Row themselves.
		return table
	case r.Cols == 0:
		return fmt.Sprintf("%s!%d:%d", table, r.Row, r.lastRow())
	}
	start, _ := excelize.CoordinatesToCellName(r.Col, r.Row)
	endCol, _ := excelize.ColumnNumberToName(r.lastCol())
	if r.Rows == 0 {
		return fmt.Sprintf("%s!%s:%s", table, start, endCol)
	}
	return fmt.Sprintf("%s!%s:%s%d", table, start, endCol, r.lastRow())
}

// pad widens every row to width cells. Backends trim trailing empty cells, a
// bounded range always comes back rectangular.
func pad(rows [][]string, width int) [][]string {
	if width <= 0 {
		return rows
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows
}
