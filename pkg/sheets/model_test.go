package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeA1(t *testing.T) {
	tests := []struct {
		rng  Range
		want string
	}{
		{WholeTable("PatientData"), "'PatientData'"},
		{Column("PatientData", 1), "'PatientData'!A1:A"},
		{RowSpan("PatientData", 2, 15), "'PatientData'!A2:O2"},
		{RowSpan("PatientData", 40, 30), "'PatientData'!A40:AD40"},
		{Range{Table: "PatientData", Row: 1, Rows: 1}, "'PatientData'!1:1"},
		{Range{Table: "PatientData", Row: 3, Col: 2, Rows: 2, Cols: 2}, "'PatientData'!B3:C4"},
		{Column("Bob's visits", 1), "'Bob''s visits'!A1:A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rng.A1())
	}
}

func TestPad(t *testing.T) {
	rows := pad([][]string{{"a"}, {}, {"a", "b", "c"}}, 3)
	assert.Equal(t, [][]string{{"a", "", ""}, {"", "", ""}, {"a", "b", "c"}}, rows)
	assert.Equal(t, [][]string{{"a"}}, pad([][]string{{"a"}}, 0))
}
