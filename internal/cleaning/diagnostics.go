package cleaning

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
)

// Unresolved is a record still missing a value after cleaning.
type Unresolved struct {
	RowID   dataset.RowID `json:"row_id"`
	Country string        `json:"country"`
	Year    int           `json:"year"`
	Fields  []string      `json:"fields"`
}

// Diagnostics reports data-quality gaps left after cleaning. Gaps at a
// country's first or last year, or countries without any status evidence,
// are expected and never fatal.
type Diagnostics struct {
	Records               int               `json:"records"`
	MissingLifeExpectancy int               `json:"missing_life_expectancy"`
	MissingStatus         int               `json:"missing_status"`
	Unresolved            []Unresolved      `json:"unresolved,omitempty"`
	Ambiguous             []AmbiguousStatus `json:"ambiguous,omitempty"`
}

// Clean reports whether no gaps remain.
func (d Diagnostics) Clean() bool {
	return d.MissingLifeExpectancy == 0 && d.MissingStatus == 0 && len(d.Ambiguous) == 0
}

// Diagnose scans the store for records with a missing life expectancy or
// status.
func Diagnose(ctx context.Context, s dataset.Store) (Diagnostics, error) {
	var d Diagnostics
	err := s.Scan(ctx, func(r dataset.Record) error {
		d.Records++
		var fields []string
		if !r.HasLifeExpectancy() {
			d.MissingLifeExpectancy++
			fields = append(fields, dataset.ColLifeExpectancy)
		}
		if !r.Status.Known() {
			d.MissingStatus++
			fields = append(fields, dataset.ColStatus)
		}
		if len(fields) > 0 {
			d.Unresolved = append(d.Unresolved, Unresolved{RowID: r.ID, Country: r.Country, Year: r.Year, Fields: fields})
		}
		return nil
	})
	if err != nil {
		return d, fmt.Errorf("diagnose: %w", err)
	}
	return d, nil
}
