package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes every record in the store as CSV with the fixed schema
// header. Missing sentinel values are written as empty cells.
func WriteCSV(ctx context.Context, w io.Writer, s Store) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	err := s.Scan(ctx, func(r Record) error {
		return cw.Write([]string{
			strconv.FormatInt(int64(r.ID), 10),
			r.Country,
			strconv.Itoa(r.Year),
			string(r.Status),
			formatOptional(r.LifeExpectancy),
			FormatFloat(r.AdultMortality),
			formatOptional(r.GDP),
			formatOptional(r.BMI),
		})
	})
	if err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// FormatFloat renders x with the fewest digits that round-trip.
func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func formatOptional(x float64) string {
	if x <= 0 {
		return ""
	}
	return FormatFloat(x)
}
