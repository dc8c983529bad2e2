package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
	"github.com/google/uuid"
)

// Options configures the default cleaning pipeline.
type Options struct {
	// Merge back-fills a duplicate survivor from the discarded duplicates.
	Merge  bool
	Logger *slog.Logger
}

// DefaultOptions enables duplicate merging.
func DefaultOptions() Options {
	return Options{Merge: true}
}

// Pipeline runs stages in order, handing the store from one to the next.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// New returns the standard pipeline: dedup, then status imputation, then
// life-expectancy interpolation. Later stages rely on the unique key
// established by dedup, so the order is fixed.
func New(opt Options) *Pipeline {
	return NewWithStages(opt.Logger,
		Deduplicator{Merge: opt.Merge, Logger: opt.Logger},
		StatusImputer{Logger: opt.Logger},
		Interpolator{Logger: opt.Logger},
	)
}

// NewWithStages builds a pipeline from explicit stages.
func NewWithStages(logger *slog.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, logger: loggerOr(logger)}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name()
	}
	return names
}

// Result describes one pipeline run.
type Result struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Stages      []StageReport `json:"stages"`
	Diagnostics Diagnostics   `json:"diagnostics"`
}

// Run validates every record, then applies the stages. A malformed record
// aborts the run before any stage mutates the store.
func (p *Pipeline) Run(ctx context.Context, s dataset.Store) (dataset.Store, *Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := p.logger.With("run_id", res.RunID)
	if err := s.Scan(ctx, dataset.Validate); err != nil {
		return s, nil, fmt.Errorf("validate: %w", err)
	}
	for _, st := range p.stages {
		var rep StageReport
		var err error
		s, rep, err = st.Apply(ctx, s)
		if err != nil {
			return s, nil, fmt.Errorf("stage %s: %w", st.Name(), err)
		}
		res.Stages = append(res.Stages, rep)
		res.Diagnostics.Ambiguous = append(res.Diagnostics.Ambiguous, rep.Ambiguous...)
	}
	diag, err := Diagnose(ctx, s)
	if err != nil {
		return s, nil, err
	}
	diag.Ambiguous = res.Diagnostics.Ambiguous
	res.Diagnostics = diag
	res.Duration = time.Since(res.StartedAt)
	if diag.MissingLifeExpectancy > 0 || diag.MissingStatus > 0 {
		log.Warn("unresolved missing values",
			"missing_life_expectancy", diag.MissingLifeExpectancy,
			"missing_status", diag.MissingStatus)
	}
	log.Info("cleaning complete", "records", diag.Records, "duration", res.Duration)
	return s, res, nil
}
