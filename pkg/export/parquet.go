// Package export writes patient records to columnar files for offline use.
package export

import (
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/parquet-go/parquet-go"

	"patientsheets/pkg/patients"
)

const flushInterval = 10_000

// PatientRow is the Parquet layout of a patient record. Every column is text,
// matching how the sheet stores it.
type PatientRow struct {
	PatientID       string `parquet:"patient_id"`
	PatientName     string `parquet:"patient_name"`
	Location        string `parquet:"location"`
	Age             string `parquet:"age"`
	Gender          string `parquet:"gender"`
	Phone           string `parquet:"phone"`
	Address         string `parquet:"address"`
	Prescription    string `parquet:"prescription"`
	Dose            string `parquet:"dose"`
	VisitDate       string `parquet:"visit_date"`
	NextVisit       string `parquet:"next_visit"`
	PhysicianID     string `parquet:"physician_id"`
	PhysicianName   string `parquet:"physician_name"`
	PhysicianNumber string `parquet:"physician_number"`
	Bill            string `parquet:"bill"`
}

func toRow(r patients.Record) PatientRow {
	return PatientRow{
		PatientID:       r.PatientID,
		PatientName:     r.PatientName,
		Location:        r.Location,
		Age:             r.Age,
		Gender:          r.Gender,
		Phone:           r.Phone,
		Address:         r.Address,
		Prescription:    r.Prescription,
		Dose:            r.Dose,
		VisitDate:       r.VisitDate,
		NextVisit:       r.NextVisit,
		PhysicianID:     r.PhysicianID,
		PhysicianName:   r.PhysicianName,
		PhysicianNumber: r.PhysicianNumber,
		Bill:            r.Bill,
	}
}

// WriteParquet drains records into w as Snappy-compressed Parquet and returns
// the number of rows written. The first error from records stops the export.
func WriteParquet(w io.Writer, records iter.Seq2[patients.Record, error]) (int, error) {
	writer := parquet.NewGenericWriter[PatientRow](w,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("patientsheets", "1.0", ""),
	)
	count := 0
	for rec, err := range records {
		if err != nil {
			writer.Close()
			return count, err
		}
		if _, err := writer.Write([]PatientRow{toRow(rec)}); err != nil {
			writer.Close()
			return count, fmt.Errorf("write patient row: %w", err)
		}
		count++
		if count%flushInterval == 0 {
			if err := writer.Flush(); err != nil {
				writer.Close()
				return count, fmt.Errorf("flush patients: %w", err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return count, fmt.Errorf("close patient writer: %w", err)
	}
	return count, nil
}

// WriteFile exports records to path. A failed export removes the partial file.
func WriteFile(path string, records iter.Seq2[patients.Record, error]) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create patient parquet: %w", err)
	}
	count, err := WriteParquet(file, records)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return count, nil
}
