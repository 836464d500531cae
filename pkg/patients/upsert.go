package patients

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// UpsertResult tells whether Upsert appended a row or overwrote one.
type UpsertResult struct {
	Created bool
	Row     int
}

// Upsert writes rec at the row holding its key, or appends it after the last
// populated key cell. All columns are written; absent fields become "".
func (s *Store) Upsert(ctx context.Context, rec Record) (UpsertResult, error) {
	if err := s.schema.Validate(rec); err != nil {
		return UpsertResult{}, err
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return UpsertResult{}, err
	}
	defer unlock()

	if err := s.checkHeader(ctx); err != nil {
		return UpsertResult{}, err
	}
	col, err := s.keyColumn(ctx)
	if err != nil {
		return UpsertResult{}, err
	}

	res := UpsertResult{Row: findKey(col, rec.PatientID)}
	if res.Row == 0 {
		res.Created = true
		res.Row = len(col) + 1
	}
	if err := s.writeRow(ctx, res.Row, s.schema.Encode(rec)); err != nil {
		return UpsertResult{}, err
	}

	entry := s.log.WithFields(log.Fields{"patientId": rec.PatientID, "row": res.Row})
	if res.Created {
		entry.Info("Appended new row")
	} else {
		entry.Info("Updated row")
	}
	return res, nil
}

// Replace overwrites the row of an existing key. The key argument wins over
// rec.PatientID.
func (s *Store) Replace(ctx context.Context, key string, rec Record) (int, error) {
	rec.PatientID = key
	if err := s.schema.Validate(rec); err != nil {
		return 0, err
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := s.checkHeader(ctx); err != nil {
		return 0, err
	}
	row, err := s.FindRow(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := s.writeRow(ctx, row, s.schema.Encode(rec)); err != nil {
		return 0, err
	}
	s.log.WithFields(log.Fields{"patientId": key, "row": row}).Info("Replaced row")
	return row, nil
}

// Patch changes only the named fields of an existing record and returns the
// merged result. The key field may be named but not changed.
func (s *Store) Patch(ctx context.Context, key string, fields map[string]string) (Record, error) {
	keyName := s.schema.Fields[keyColumn-1].Name
	names := make([]string, 0, len(fields))
	for name, v := range fields {
		if _, ok := s.schema.Index(name); !ok {
			return Record{}, fmt.Errorf("%w: unknown field %q", ErrInvalidRecord, name)
		}
		if name == keyName && v != key {
			return Record{}, fmt.Errorf("%w: %s cannot be changed", ErrInvalidRecord, keyName)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	unlock, err := s.lock(ctx)
	if err != nil {
		return Record{}, err
	}
	defer unlock()

	if err := s.checkHeader(ctx); err != nil {
		return Record{}, err
	}
	row, err := s.FindRow(ctx, key)
	if err != nil {
		return Record{}, err
	}
	cells, err := s.readRow(ctx, row)
	if err != nil {
		return Record{}, err
	}
	for _, name := range names {
		i, _ := s.schema.Index(name)
		cells[i] = fields[name]
	}
	rec, err := s.schema.DecodePositional(cells)
	if err != nil {
		return Record{}, err
	}
	if err := s.writeRow(ctx, row, cells); err != nil {
		return Record{}, err
	}
	s.log.WithFields(log.Fields{"patientId": key, "row": row, "fields": names}).Info("Patched row")
	return rec, nil
}

// Delete removes the row of key; rows below it move up by one.
func (s *Store) Delete(ctx context.Context, key string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	row, err := s.FindRow(ctx, key)
	if err != nil {
		return err
	}
	if row == 1 {
		return ErrNotFound
	}
	if err := s.doc.DeleteRow(ctx, s.table, row); err != nil {
		return upstream("delete row", err)
	}
	s.log.WithFields(log.Fields{"patientId": key, "row": row}).Info("Deleted row")
	return nil
}
