// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one lead generation pass: ingestion, enrichment,
// scoring and ranking, in that order and on a single goroutine.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/leadgen/internal/enrich"
	"github.com/pdiddy/leadgen/internal/ingest"
	"github.com/pdiddy/leadgen/internal/metrics"
	"github.com/pdiddy/leadgen/internal/scoring"
	"github.com/pdiddy/leadgen/pkg/types"
)

// Pipeline wires the stages together. It holds no state between runs; every
// Run starts from an empty lead collection.
type Pipeline struct {
	sources  []ingest.Source
	enricher enrich.Enricher
	scorer   *scoring.Scorer
	maxLeads int
	metrics  *metrics.Recorder
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run metrics on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline over sources, called in the given order. maxLeads
// caps how many leads are enriched and scored; 0 means no cap.
func New(sources []ingest.Source, enricher enrich.Enricher, scorer *scoring.Scorer, maxLeads int, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources:  sources,
		enricher: enricher,
		scorer:   scorer,
		maxLeads: maxLeads,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one pass and writes progress and warnings to w.
//
// A failing source does not fail the run: its error becomes a notice and
// the run continues with the remaining sources. Leads without a name, and
// leads the enricher rejects, are skipped with a warning. The only error
// returned is cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (types.Run, error) {
	run := types.Run{
		ID:        uuid.NewString(),
		StartedAt: p.now(),
	}

	var raw []types.Lead
	for _, src := range p.sources {
		leads, err := src.Fetch(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return types.Run{}, ctxErr
			}
			notice := fmt.Sprintf("source %s failed: %v", src.Name(), err)
			run.Notices = append(run.Notices, notice)
			fmt.Fprintf(w, "warning: %s\n", notice)
			p.metrics.ObserveSourceFailure(src.Name())
			continue
		}
		fmt.Fprintf(w, "%s: %d leads\n", src.Name(), len(leads))
		p.metrics.ObserveIngested(src.Name(), len(leads))
		raw = append(raw, leads...)
	}

	named := raw[:0:0]
	for i, l := range raw {
		if !l.HasName() {
			p.warn(&run, w, fmt.Sprintf("skipped lead %d from %s: missing name", i+1, l.Source))
			continue
		}
		named = append(named, l)
	}

	if p.maxLeads > 0 && len(named) > p.maxLeads {
		fmt.Fprintf(w, "keeping first %d of %d leads\n", p.maxLeads, len(named))
		named = named[:p.maxLeads]
	}

	enriched := make([]types.Lead, 0, len(named))
	for _, l := range named {
		e, err := p.enricher.Enrich(ctx, l)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return types.Run{}, ctxErr
			}
			p.warn(&run, w, fmt.Sprintf("skipped lead %q: enrichment failed: %v", l.Name, err))
			continue
		}
		// Enrichment may not rename a lead or preset its score.
		e.Name = l.Name
		e.RankProbability = 0
		enriched = append(enriched, e)
	}

	run.Leads = p.scorer.Apply(enriched)
	run.FinishedAt = p.now()

	scores := make([]float64, len(run.Leads))
	for i, l := range run.Leads {
		scores[i] = l.RankProbability
	}
	p.metrics.ObserveRun(run.FinishedAt.Sub(run.StartedAt), scores)

	fmt.Fprintf(w, "scored %d leads (run %s)\n", len(run.Leads), run.ID)
	return run, nil
}

func (p *Pipeline) warn(run *types.Run, w io.Writer, msg string) {
	run.Warnings = append(run.Warnings, msg)
	fmt.Fprintf(w, "warning: %s\n", msg)
	p.metrics.ObserveSkipped()
}
