package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
)

// Deduplicator keeps one record per (country, year).
//
// The survivor of a duplicate group is the record with the lowest RowID.
// When Merge is set, the survivor back-fills each missing status,
// life_expectancy, gdp and bmi from the discarded duplicates, taking the
// first known value in RowID order.
type Deduplicator struct {
	Merge  bool
	Logger *slog.Logger
}

func (Deduplicator) Name() string { return "dedup" }

func (d Deduplicator) Apply(ctx context.Context, s dataset.Store) (dataset.Store, StageReport, error) {
	log := loggerOr(d.Logger)
	rep := StageReport{Stage: d.Name()}
	groups, err := dataset.GroupBy(ctx, s, dataset.ByKey)
	if err != nil {
		return s, rep, fmt.Errorf("dedup: %w", err)
	}
	var losers []dataset.RowID
	for _, g := range groups {
		rep.Examined += len(g.Records)
		if len(g.Records) < 2 {
			continue
		}
		recs := g.Records
		sort.SliceStable(recs, func(i, j int) bool { return survivorFirst(recs[i], recs[j]) })
		survivor := recs[0]
		if d.Merge {
			p, n := mergePatch(survivor, recs[1:])
			if n > 0 {
				if err := s.Update(ctx, survivor.ID, p); err != nil {
					return s, rep, fmt.Errorf("dedup merge %s: %w", g.Key, err)
				}
				rep.Merged += n
				rep.Updated++
			}
		}
		for _, r := range recs[1:] {
			losers = append(losers, r.ID)
		}
		log.Debug("duplicate key", "key", g.Key.String(), "survivor", survivor.ID, "discarded", len(recs)-1)
	}
	if len(losers) > 0 {
		n, err := s.Delete(ctx, losers...)
		if err != nil {
			return s, rep, fmt.Errorf("dedup delete: %w", err)
		}
		rep.Removed = n
	}
	log.Info("stage complete", "stage", d.Name(), "examined", rep.Examined, "removed", rep.Removed, "merged_fields", rep.Merged)
	return s, rep, nil
}

// survivorFirst orders a duplicate group: lowest RowID wins.
func survivorFirst(a, b dataset.Record) bool { return a.ID < b.ID }

// mergePatch fills the survivor's missing fields from the other records and
// returns the patch plus the number of fields it sets.
func mergePatch(survivor dataset.Record, others []dataset.Record) (dataset.Patch, int) {
	var p dataset.Patch
	n := 0
	for _, o := range others {
		if p.Status == nil && !survivor.Status.Known() && o.Status.Known() {
			st := o.Status
			p.Status = &st
			n++
		}
		if p.LifeExpectancy == nil && !survivor.HasLifeExpectancy() && o.HasLifeExpectancy() {
			v := o.LifeExpectancy
			p.LifeExpectancy = &v
			n++
		}
		if p.GDP == nil && !survivor.HasGDP() && o.HasGDP() {
			v := o.GDP
			p.GDP = &v
			n++
		}
		if p.BMI == nil && !survivor.HasBMI() && o.HasBMI() {
			v := o.BMI
			p.BMI = &v
			n++
		}
	}
	return p, n
}
