package cleaning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
)

// Interpolator fills a missing life expectancy with the rounded mean of the
// same country's values in the years immediately before and after.
//
// Neighbors are read from a snapshot taken before any update, so a value
// written by this stage is never used as a neighbor. A second application is
// a no-op: a record can only be filled when both neighbors are known, and a
// missing neighbor is itself blocked by the record it neighbors.
type Interpolator struct {
	Logger *slog.Logger
}

func (Interpolator) Name() string { return "interpolate" }

func (ip Interpolator) Apply(ctx context.Context, s dataset.Store) (dataset.Store, StageReport, error) {
	log := loggerOr(ip.Logger)
	rep := StageReport{Stage: ip.Name()}
	recs, err := dataset.Snapshot(ctx, s)
	if err != nil {
		return s, rep, fmt.Errorf("interpolate: %w", err)
	}
	rep.Examined = len(recs)
	for _, u := range neighborMeans(recs) {
		v := u.value
		if err := s.Update(ctx, u.id, dataset.Patch{LifeExpectancy: &v}); err != nil {
			return s, rep, fmt.Errorf("interpolate %s: %w", u.key, err)
		}
		rep.Updated++
		log.Debug("life expectancy interpolated", "key", u.key.String(), "value", v)
	}
	log.Info("stage complete", "stage", ip.Name(), "examined", rep.Examined, "updated", rep.Updated)
	return s, rep, nil
}

type interpolation struct {
	id    dataset.RowID
	key   dataset.Key
	value float64
}

// neighborMeans computes one pass of interpolations over recs. When a key
// appears more than once the lowest RowID is used as the neighbor.
func neighborMeans(recs []dataset.Record) []interpolation {
	byKey := make(map[dataset.Key]dataset.Record, len(recs))
	for _, r := range recs {
		if _, ok := byKey[r.Key()]; !ok {
			byKey[r.Key()] = r
		}
	}
	var out []interpolation
	for _, r := range recs {
		if r.HasLifeExpectancy() {
			continue
		}
		prev, okPrev := byKey[dataset.Key{Country: r.Country, Year: r.Year - 1}]
		next, okNext := byKey[dataset.Key{Country: r.Country, Year: r.Year + 1}]
		if !okPrev || !okNext || !prev.HasLifeExpectancy() || !next.HasLifeExpectancy() {
			continue
		}
		out = append(out, interpolation{
			id:    r.ID,
			key:   r.Key(),
			value: dataset.Round1((prev.LifeExpectancy + next.LifeExpectancy) / 2),
		})
	}
	return out
}
