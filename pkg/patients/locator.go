package patients

import (
	"context"

	"patientsheets/pkg/sheets"
)

// FindRow returns the 1-based row of the first key column cell equal to key.
// The whole column is read on every call; row 1 is part of the scan.
func (s *Store) FindRow(ctx context.Context, key string) (int, error) {
	if key == "" {
		return 0, ErrNotFound
	}
	col, err := s.keyColumn(ctx)
	if err != nil {
		return 0, err
	}
	if row := findKey(col, key); row > 0 {
		return row, nil
	}
	return 0, ErrNotFound
}

func (s *Store) keyColumn(ctx context.Context) ([]string, error) {
	rows, err := s.doc.ReadRange(ctx, sheets.Column(s.table, keyColumn))
	if err != nil {
		return nil, upstream("read key column", err)
	}
	col := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			col[i] = row[0]
		}
	}
	return col, nil
}

func findKey(col []string, key string) int {
	for i, v := range col {
		if v == key {
			return i + 1
		}
	}
	return 0
}
