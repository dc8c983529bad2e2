// Package analysis computes read-only analytical views over a cleaned
// life-expectancy dataset.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
	"golang.org/x/sync/errgroup"
)

// DefaultGDPThreshold splits the high and low GDP buckets.
const DefaultGDPThreshold = 1500.0

// Engine runs the analytical queries. The zero value uses
// DefaultGDPThreshold and the default logger.
type Engine struct {
	GDPThreshold float64
	Logger       *slog.Logger
}

// NewEngine returns an engine with the given GDP threshold.
func NewEngine(threshold float64, logger *slog.Logger) *Engine {
	return &Engine{GDPThreshold: threshold, Logger: logger}
}

func (e *Engine) threshold() float64 {
	if e.GDPThreshold <= 0 {
		return DefaultGDPThreshold
	}
	return e.GDPThreshold
}

// Run takes one snapshot of the store and evaluates every query on it
// concurrently. The queries only read the snapshot and each writes its own
// field of the result.
func (e *Engine) Run(ctx context.Context, s dataset.Store) (*Results, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	recs, err := dataset.Snapshot(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	res := &Results{Records: len(recs), GDPThreshold: e.threshold()}
	g, gctx := errgroup.WithContext(ctx)
	run := func(name string, fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fn()
			return nil
		})
	}
	run("trend", func() { res.Trend = Trend(recs) })
	run("yearly_average", func() { res.YearlyAverage = YearlyAverage(recs) })
	run("gdp_correlation", func() { res.GDPCorrelation = GDPCorrelation(recs) })
	run("gdp_bucket", func() { res.GDPBucket = Bucket(recs, res.GDPThreshold) })
	run("status_comparison", func() { res.StatusComparison = StatusComparison(recs) })
	run("bmi_correlation", func() { res.BMICorrelation = BMICorrelation(recs) })
	run("mortality_rolling_total", func() { res.MortalityRollingTotal = MortalityRollingTotal(recs) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("analytics complete", "records", res.Records, "duration", time.Since(start))
	return res, nil
}
