package patients

import (
	"context"
	"slices"

	"patientsheets/pkg/sheets"
)

// EnsureTable makes sure the table exists with the schema header. A new table
// gets the header as row 1; an existing table is never rewritten. An existing
// table whose header differs from the schema is rejected with a *SchemaError,
// except a completely empty one, which gets the header. It holds the table
// write lock, so concurrent first writers see a single creation.
func (s *Store) EnsureTable(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	names, err := s.doc.TableNames(ctx)
	if err != nil {
		return upstream("list tables", err)
	}

	if !slices.Contains(names, s.table) {
		if err := s.doc.AddTable(ctx, s.table); err != nil {
			return upstream("add table", err)
		}
		s.log.Info("Created table")
		return s.writeHeader(ctx)
	}

	header, err := s.readRow(ctx, 1)
	if err != nil {
		return err
	}
	if !isBlank(header) {
		return s.schema.CheckHeader(s.table, header)
	}

	rows, err := s.doc.ReadRange(ctx, sheets.WholeTable(s.table))
	if err != nil {
		return upstream("read table", err)
	}
	if len(rows) > 0 {
		return &SchemaError{Table: s.table, Version: s.schema.Version, Reason: "data rows without a header row"}
	}
	s.log.Info("Table is empty, writing header row")
	return s.writeHeader(ctx)
}

func (s *Store) writeHeader(ctx context.Context) error {
	if err := s.writeRow(ctx, 1, s.schema.Header()); err != nil {
		return err
	}
	s.log.WithField("version", s.schema.Version).Info("Added header row")
	return nil
}
