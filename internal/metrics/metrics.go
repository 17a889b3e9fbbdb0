// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instruments for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the pipeline metrics. A nil *Recorder is valid and records
// nothing, so callers never need to check for it.
type Recorder struct {
	LeadsIngested  *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	LeadsSkipped   prometheus.Counter
	Runs           prometheus.Counter
	RunDuration    prometheus.Histogram
	LeadScores     prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		LeadsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_leads_ingested_total",
			Help: "Raw leads returned by each ingestion source",
		}, []string{"source"}),
		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_source_failures_total",
			Help: "Ingestion source fetches that returned an error",
		}, []string{"source"}),
		LeadsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_leads_skipped_total",
			Help: "Leads dropped for missing a name or failing enrichment",
		}),
		Runs: f.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_runs_total",
			Help: "Completed pipeline runs",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgen_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		LeadScores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgen_lead_rank_probability",
			Help:    "Distribution of computed rank probabilities",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

// ObserveIngested counts n leads from source.
func (r *Recorder) ObserveIngested(source string, n int) {
	if r == nil {
		return
	}
	r.LeadsIngested.WithLabelValues(source).Add(float64(n))
}

// ObserveSourceFailure counts a failed fetch.
func (r *Recorder) ObserveSourceFailure(source string) {
	if r == nil {
		return
	}
	r.SourceFailures.WithLabelValues(source).Inc()
}

// ObserveSkipped counts a dropped lead.
func (r *Recorder) ObserveSkipped() {
	if r == nil {
		return
	}
	r.LeadsSkipped.Inc()
}

// ObserveRun records a finished run and its scores.
func (r *Recorder) ObserveRun(d time.Duration, scores []float64) {
	if r == nil {
		return
	}
	r.Runs.Inc()
	r.RunDuration.Observe(d.Seconds())
	for _, s := range scores {
		r.LeadScores.Observe(s)
	}
}
