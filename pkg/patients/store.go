package patients

import (
	"context"

	log "github.com/sirupsen/logrus"

	"patientsheets/pkg/sheets"
)

// Store treats one table of a document as a table of patient records keyed
// by patientId. A Store is cheap; build one per request.
type Store struct {
	doc    sheets.Document
	table  string
	schema Schema
	locks  *TableLocks
	log    *log.Entry
}

type Option func(*Store)

// WithTable overrides DefaultTable.
func WithTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.table = name
		}
	}
}

// WithLocks sets the lock set writes are serialized through. Stores sharing
// a TableLocks never interleave writes to the same table.
func WithLocks(l *TableLocks) Option {
	return func(s *Store) {
		s.locks = l
	}
}

func NewStore(doc sheets.Document, opts ...Option) *Store {
	s := &Store{
		doc:    doc,
		table:  DefaultTable,
		schema: PatientSchema,
		locks:  defaultLocks,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = log.WithFields(log.Fields{
		"document": doc.ID(),
		"table":    s.table,
	})
	return s
}

// Table returns the table name the store works on.
func (s *Store) Table() string {
	return s.table
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	return s.locks.Lock(ctx, s.doc.ID()+"\x00"+s.table)
}

func (s *Store) readRow(ctx context.Context, row int) ([]string, error) {
	rows, err := s.doc.ReadRange(ctx, sheets.RowSpan(s.table, row, s.schema.Width()))
	if err != nil {
		return nil, upstream("read row", err)
	}
	if len(rows) == 0 {
		return make([]string, s.schema.Width()), nil
	}
	return rows[0], nil
}

func (s *Store) writeRow(ctx context.Context, row int, cells []string) error {
	err := s.doc.WriteRange(ctx, sheets.RowSpan(s.table, row, len(cells)), [][]string{cells})
	return upstream("write row", err)
}

// checkHeader fails unless row 1 matches the schema. Every positional write
// is preceded by it.
func (s *Store) checkHeader(ctx context.Context) error {
	header, err := s.readRow(ctx, 1)
	if err != nil {
		return err
	}
	return s.schema.CheckHeader(s.table, header)
}
