package patients

import (
	"context"
	"errors"
	"iter"

	"patientsheets/pkg/sheets"
)

// All yields every data row decoded by the header text above it. The table is
// read when iteration starts; each iteration reads it again. Blank rows are
// skipped. A read failure is yielded once as the last element.
func (s *Store) All(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		rows, err := s.doc.ReadRange(ctx, sheets.WholeTable(s.table))
		if err != nil {
			yield(Record{}, upstream("read table", err))
			return
		}
		if len(rows) == 0 {
			return
		}
		header := rows[0]
		for _, row := range rows[1:] {
			if isBlank(row) {
				continue
			}
			if !yield(s.schema.DecodeByHeader(header, row), nil) {
				return
			}
		}
	}
}

// GetAll collects All. The result is never nil.
func (s *Store) GetAll(ctx context.Context) ([]Record, error) {
	records := []Record{}
	for rec, err := range s.All(ctx) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	s.log.WithField("count", len(records)).Debug("Read all rows")
	return records, nil
}

// GetByKey returns the record stored under key, or ErrNotFound. The header
// row is never returned as a record.
func (s *Store) GetByKey(ctx context.Context, key string) (Record, error) {
	row, err := s.FindRow(ctx, key)
	if err != nil {
		return Record{}, err
	}
	if row == 1 {
		return Record{}, ErrNotFound
	}
	header, err := s.readRow(ctx, 1)
	if err != nil {
		return Record{}, err
	}
	cells, err := s.readRow(ctx, row)
	if err != nil {
		return Record{}, err
	}
	s.log.WithField("row", row).Debug("Read row")
	return s.schema.DecodeByHeader(header, cells), nil
}

// SearchByKey is GetByKey with a miss reported as an empty result.
func (s *Store) SearchByKey(ctx context.Context, key string) ([]Record, error) {
	rec, err := s.GetByKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Record{rec}, nil
}
