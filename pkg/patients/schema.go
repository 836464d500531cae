package patients

import (
	"fmt"
	"slices"
)

// DefaultTable is the sheet patient rows live in.
const DefaultTable = "PatientData"

// Record is one patient visit. Every field is kept as text, including age and
// bill, exactly as it is stored in the sheet.
type Record struct {
	PatientID       string `json:"patientId"`
	PatientName     string `json:"patientName"`
	Location        string `json:"location"`
	Age             string `json:"age"`
	Gender          string `json:"gender"` // Male, Female or Other
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Prescription    string `json:"prescription"`
	Dose            string `json:"dose"`
	VisitDate       string `json:"visitDate"`
	NextVisit       string `json:"nextVisit"`
	PhysicianID     string `json:"physicianId"`
	PhysicianName   string `json:"physicianName"`
	PhysicianNumber string `json:"physicianNumber"`
	Bill            string `json:"bill"`
}

// Field is one column of a schema. ref points at the backing Record field.
type Field struct {
	Name     string
	Required bool
	ref      func(*Record) *string
}

// Schema is the ordered column layout of a table. Column order is the write
// order and the header row text is the field name list.
type Schema struct {
	Version int
	Fields  []Field
}

// PatientSchema is the only layout the store reads and writes. Column A is the
// primary key.
var PatientSchema = Schema{
	Version: 1,
	Fields: []Field{
		{Name: "patientId", Required: true, ref: func(r *Record) *string { return &r.PatientID }},
		{Name: "patientName", ref: func(r *Record) *string { return &r.PatientName }},
		{Name: "location", ref: func(r *Record) *string { return &r.Location }},
		{Name: "age", ref: func(r *Record) *string { return &r.Age }},
		{Name: "gender", ref: func(r *Record) *string { return &r.Gender }},
		{Name: "phone", ref: func(r *Record) *string { return &r.Phone }},
		{Name: "address", ref: func(r *Record) *string { return &r.Address }},
		{Name: "prescription", ref: func(r *Record) *string { return &r.Prescription }},
		{Name: "dose", ref: func(r *Record) *string { return &r.Dose }},
		{Name: "visitDate", ref: func(r *Record) *string { return &r.VisitDate }},
		{Name: "nextVisit", ref: func(r *Record) *string { return &r.NextVisit }},
		{Name: "physicianId", ref: func(r *Record) *string { return &r.PhysicianID }},
		{Name: "physicianName", ref: func(r *Record) *string { return &r.PhysicianName }},
		{Name: "physicianNumber", ref: func(r *Record) *string { return &r.PhysicianNumber }},
		{Name: "bill", ref: func(r *Record) *string { return &r.Bill }},
	},
}

// keyColumn is the 1-based column holding the primary key.
const keyColumn = 1

func (s Schema) Width() int {
	return len(s.Fields)
}

// Header returns the header row written at table creation.
func (s Schema) Header() []string {
	header := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		header[i] = f.Name
	}
	return header
}

// Index returns the 0-based column of the named field.
func (s Schema) Index(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Validate reports a missing required field, or a key that would collide with
// the header cell of the key column.
func (s Schema) Validate(rec Record) error {
	for _, f := range s.Fields {
		if f.Required && *f.ref(&rec) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidRecord, f.Name)
		}
	}
	key := s.Fields[keyColumn-1]
	if *key.ref(&rec) == key.Name {
		return fmt.Errorf("%w: %s may not equal its column title", ErrInvalidRecord, key.Name)
	}
	return nil
}

// CheckHeader compares the first Width cells of header with the schema.
func (s Schema) CheckHeader(table string, header []string) error {
	if isBlank(header) {
		return &SchemaError{Table: table, Version: s.Version, Reason: "header row is missing"}
	}
	want := s.Header()
	got := make([]string, len(want))
	copy(got, header)
	if !slices.Equal(got, want) {
		return &SchemaError{
			Table:   table,
			Version: s.Version,
			Reason:  fmt.Sprintf("header is %q, want %q", got, want),
		}
	}
	return nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
