package cleaning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
)

// AmbiguousStatus records a country whose history carries more than one
// known status. Such countries are not imputed.
type AmbiguousStatus struct {
	Country string           `json:"country"`
	Values  []dataset.Status `json:"values"`
}

// StatusImputer copies a country's single known status onto its records
// with a missing status.
type StatusImputer struct {
	Logger *slog.Logger
}

func (StatusImputer) Name() string { return "status" }

func (si StatusImputer) Apply(ctx context.Context, s dataset.Store) (dataset.Store, StageReport, error) {
	log := loggerOr(si.Logger)
	rep := StageReport{Stage: si.Name()}
	groups, err := dataset.GroupBy(ctx, s, dataset.ByCountry)
	if err != nil {
		return s, rep, fmt.Errorf("status: %w", err)
	}
	for _, g := range groups {
		rep.Examined += len(g.Records)
		values := knownStatuses(g.Records)
		switch len(values) {
		case 0:
			continue
		case 1:
		default:
			rep.Ambiguous = append(rep.Ambiguous, AmbiguousStatus{Country: g.Key, Values: values})
			log.Warn("ambiguous status", "country", g.Key, "values", values)
			continue
		}
		st := values[0]
		for _, r := range g.Records {
			if r.Status.Known() {
				continue
			}
			if err := s.Update(ctx, r.ID, dataset.Patch{Status: &st}); err != nil {
				return s, rep, fmt.Errorf("status %s: %w", r.Key(), err)
			}
			rep.Updated++
			log.Debug("status imputed", "key", r.Key().String(), "status", st)
		}
	}
	log.Info("stage complete", "stage", si.Name(), "examined", rep.Examined, "updated", rep.Updated, "ambiguous", len(rep.Ambiguous))
	return s, rep, nil
}

// knownStatuses returns the distinct known statuses in a fixed order.
func knownStatuses(recs []dataset.Record) []dataset.Status {
	var seenDeveloping, seenDeveloped bool
	for _, r := range recs {
		switch r.Status {
		case dataset.StatusDeveloping:
			seenDeveloping = true
		case dataset.StatusDeveloped:
			seenDeveloped = true
		}
	}
	var out []dataset.Status
	if seenDeveloping {
		out = append(out, dataset.StatusDeveloping)
	}
	if seenDeveloped {
		out = append(out, dataset.StatusDeveloped)
	}
	return out
}
