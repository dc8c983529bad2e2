// Package cleaning implements the data-quality passes applied to a dataset
// before analysis: deduplication, status imputation and life-expectancy
// interpolation.
package cleaning

import (
	"context"
	"log/slog"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
)

// Stage is one cleaning pass. A stage receives the store, mutates it through
// the Store API only, and hands it on to the next stage.
type Stage interface {
	Name() string
	Apply(ctx context.Context, s dataset.Store) (dataset.Store, StageReport, error)
}

// StageReport summarizes what a stage changed.
type StageReport struct {
	Stage    string `json:"stage"`
	Examined int    `json:"examined"`
	Updated  int    `json:"updated"`
	Removed  int    `json:"removed,omitempty"`
	Merged   int    `json:"merged,omitempty"`
	// Ambiguous lists countries skipped by status imputation.
	Ambiguous []AmbiguousStatus `json:"ambiguous,omitempty"`
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
