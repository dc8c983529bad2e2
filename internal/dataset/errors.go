package dataset

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row ID does not exist in the store.
var ErrNotFound = errors.New("record not found")

// MalformedRecordError indicates a record is missing a required key field.
// Line is the 1-based source line when the record came from a file;
// RowID is set when the record was already stored.
type MalformedRecordError struct {
	Line   int
	RowID  RowID
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("malformed record at line %d: %s: %s", e.Line, e.Field, e.Reason)
	case e.RowID > 0:
		return fmt.Sprintf("malformed record row_id=%d: %s: %s", e.RowID, e.Field, e.Reason)
	default:
		return fmt.Sprintf("malformed record: %s: %s", e.Field, e.Reason)
	}
}

// Validate checks the key fields of a stored record.
func Validate(r Record) error {
	if r.Country == "" {
		return &MalformedRecordError{RowID: r.ID, Field: "country", Reason: "empty"}
	}
	if r.Year == 0 {
		return &MalformedRecordError{RowID: r.ID, Field: "year", Reason: "missing"}
	}
	return nil
}
