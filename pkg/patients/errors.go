package patients

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by point lookups and updates on a missing key.
	ErrNotFound = errors.New("patient not found")
	// ErrInvalidRecord is returned before any write when the payload is unusable.
	ErrInvalidRecord = errors.New("invalid patient record")
	// ErrSchemaMismatch matches every *SchemaError.
	ErrSchemaMismatch = errors.New("table does not match patient schema")
)

// SchemaError reports a table or row whose shape differs from the schema.
type SchemaError struct {
	Table   string
	Version int
	Reason  string
}

func (e *SchemaError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("row does not match patient schema v%d: %s", e.Version, e.Reason)
	}
	return fmt.Sprintf("table %q does not match patient schema v%d: %s", e.Table, e.Version, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// UpstreamError wraps any failure of the document service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("document %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}
