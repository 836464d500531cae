package patients

import "fmt"

// Encode returns the row cells of rec in column order.
func (s Schema) Encode(rec Record) []string {
	cells := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cells[i] = *f.ref(&rec)
	}
	return cells
}

// DecodePositional maps cells to fields by column position. The row must have
// exactly Width cells.
func (s Schema) DecodePositional(cells []string) (Record, error) {
	var rec Record
	if len(cells) != len(s.Fields) {
		return rec, &SchemaError{
			Version: s.Version,
			Reason:  fmt.Sprintf("row has %d cells, want %d", len(cells), len(s.Fields)),
		}
	}
	for i, f := range s.Fields {
		*f.ref(&rec) = cells[i]
	}
	return rec, nil
}

// DecodeByHeader maps cells to fields by the header text above them. Columns
// whose title is not a field name are dropped; missing cells read as empty.
func (s Schema) DecodeByHeader(header, cells []string) Record {
	var rec Record
	for j, title := range header {
		i, ok := s.Index(title)
		if !ok || j >= len(cells) {
			continue
		}
		*s.Fields[i].ref(&rec) = cells[j]
	}
	return rec
}

// Encode encodes rec with PatientSchema.
func Encode(rec Record) []string {
	return PatientSchema.Encode(rec)
}

// DecodePositional decodes cells with PatientSchema.
func DecodePositional(cells []string) (Record, error) {
	return PatientSchema.DecodePositional(cells)
}

// DecodeByHeader decodes cells with PatientSchema.
func DecodeByHeader(header, cells []string) Record {
	return PatientSchema.DecodeByHeader(header, cells)
}
