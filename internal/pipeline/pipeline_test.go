// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/leadgen/internal/enrich"
	"github.com/pdiddy/leadgen/internal/ingest"
	"github.com/pdiddy/leadgen/internal/metrics"
	"github.com/pdiddy/leadgen/internal/scoring"
	"github.com/pdiddy/leadgen/pkg/types"
)

// fakeSource returns canned leads or an error.
type fakeSource struct {
	name  string
	leads []types.Lead
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]types.Lead, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.leads, nil
}

// rejectingEnricher fails for one name and passes everything else through.
type rejectingEnricher struct {
	reject string
}

func (r rejectingEnricher) Enrich(_ context.Context, l types.Lead) (types.Lead, error) {
	if l.Name == r.reject {
		return l, errors.New("no data")
	}
	l.Name = "renamed"
	l.RankProbability = 1
	return l, nil
}

func newScorer(t *testing.T) *scoring.Scorer {
	t.Helper()
	s, err := scoring.New(types.DefaultConfig().Scoring)
	require.NoError(t, err)
	return s
}

func mockEnricher() enrich.Enricher {
	return enrich.NewMockEnricher(types.DefaultConfig().Enrichment)
}

func names(leads []types.Lead) []string {
	var out []string
	for _, l := range leads {
		out = append(out, l.Name)
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	src := &fakeSource{name: "fake", leads: []types.Lead{
		{Name: "Lead B", Title: "Lab Technician", Source: "fake"},
		{Name: "Lead A", Title: "VP of Research", Location: "Boston", FundingSignal: "Series B", IntentSignal: true, Source: "fake"},
	}}

	p := New([]ingest.Source{src}, mockEnricher(), newScorer(t), 0)
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)

	require.Len(t, run.Leads, 2)
	assert.Equal(t, []string{"Lead A", "Lead B"}, names(run.Leads))
	assert.Greater(t, run.Leads[0].RankProbability, run.Leads[1].RankProbability)
	assert.NotEmpty(t, run.ID)
	assert.Empty(t, run.Notices)
	assert.Empty(t, run.Warnings)

	// Enrichment ran: contact fields were fabricated.
	assert.Equal(t, "lead.a@example.com", run.Leads[0].Email)
	assert.Equal(t, "https://linkedin.com/in/leada", run.Leads[0].LinkedInURL)
}

func TestRunSourceFailureBecomesNotice(t *testing.T) {
	failing := &fakeSource{name: "pubmed", err: errors.New("connection refused")}
	mock := &fakeSource{name: "mock", leads: []types.Lead{{Name: "Fallback Person", Source: "mock"}}}

	var out bytes.Buffer
	p := New([]ingest.Source{failing, mock}, mockEnricher(), newScorer(t), 0)
	run, err := p.Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.calls, "later sources still run")
	require.Len(t, run.Notices, 1)
	assert.Contains(t, run.Notices[0], "source pubmed failed: connection refused")
	assert.Equal(t, []string{"Fallback Person"}, names(run.Leads))
	assert.Contains(t, out.String(), "warning: source pubmed failed")
}

func TestRunSkipsNamelessLeads(t *testing.T) {
	src := &fakeSource{name: "fake", leads: []types.Lead{
		{Name: "Kept", Source: "fake"},
		{Name: "   ", Title: "Director", Source: "fake"},
		{Title: "VP", Source: "fake"},
	}}

	p := New([]ingest.Source{src}, mockEnricher(), newScorer(t), 0)
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"Kept"}, names(run.Leads))
	require.Len(t, run.Warnings, 2)
	assert.Contains(t, run.Warnings[0], "missing name")
}

func TestRunEnrichmentFailureSkipsLead(t *testing.T) {
	src := &fakeSource{name: "fake", leads: []types.Lead{{Name: "Good"}, {Name: "Bad"}}}

	p := New([]ingest.Source{src}, rejectingEnricher{reject: "Bad"}, newScorer(t), 0)
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)

	require.Len(t, run.Leads, 1)
	// The enricher cannot rename a lead or preset its score.
	assert.Equal(t, "Good", run.Leads[0].Name)
	assert.Equal(t, 0.0, run.Leads[0].RankProbability)
	require.Len(t, run.Warnings, 1)
	assert.Contains(t, run.Warnings[0], `"Bad"`)
}

func TestRunMaxLeads(t *testing.T) {
	src := &fakeSource{name: "fake", leads: []types.Lead{
		{Name: "one"}, {Name: ""}, {Name: "two"}, {Name: "three"},
	}}
	p := New([]ingest.Source{src}, mockEnricher(), newScorer(t), 2)
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)
	// Nameless leads do not count against the cap.
	assert.Equal(t, []string{"one", "two"}, names(run.Leads))
}

func TestRunTiesKeepIngestionOrderAcrossSources(t *testing.T) {
	a := &fakeSource{name: "a", leads: []types.Lead{{Name: "a1", Title: "Scientist"}, {Name: "a2", Title: "Scientist"}}}
	b := &fakeSource{name: "b", leads: []types.Lead{{Name: "b1", Title: "Scientist"}}}

	p := New([]ingest.Source{a, b}, rejectingEnricher{}, newScorer(t), 0)
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, names(run.Leads))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{name: "fake", err: context.Canceled}

	p := New([]ingest.Source{src}, mockEnricher(), newScorer(t), 0)
	_, err := p.Run(ctx, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmptyStartsFresh(t *testing.T) {
	src := &fakeSource{name: "fake", leads: []types.Lead{{Name: "x"}}}
	p := New([]ingest.Source{src}, mockEnricher(), newScorer(t), 0)

	first, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)

	assert.Len(t, second.Leads, 1)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunRecordsMetricsAndClock(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ticks := []time.Time{start, start.Add(2 * time.Second)}
	clock := func() time.Time {
		t := ticks[0]
		ticks = ticks[1:]
		return t
	}

	ok := &fakeSource{name: "ok", leads: []types.Lead{{Name: "x"}, {Name: ""}}}
	bad := &fakeSource{name: "bad", err: errors.New("boom")}

	p := New([]ingest.Source{ok, bad}, mockEnricher(), newScorer(t), 0, WithMetrics(rec), WithClock(clock))
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, start, run.StartedAt)
	assert.Equal(t, start.Add(2*time.Second), run.FinishedAt)
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.LeadsIngested.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.SourceFailures.WithLabelValues("bad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.LeadsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Runs))
}

func TestRunWithRealMockSource(t *testing.T) {
	mock, err := ingest.NewMockSource()
	require.NoError(t, err)

	p := New([]ingest.Source{mock}, mockEnricher(), newScorer(t), 0)
	run, err := p.Run(context.Background(), io.Discard)
	require.NoError(t, err)
	require.NotEmpty(t, run.Leads)

	for i := 1; i < len(run.Leads); i++ {
		assert.GreaterOrEqual(t, run.Leads[i-1].RankProbability, run.Leads[i].RankProbability)
	}
	for _, l := range run.Leads {
		assert.NotEmpty(t, l.Email)
		assert.NotEmpty(t, l.LinkedInURL)
		assert.GreaterOrEqual(t, l.RankProbability, 0.0)
		assert.LessOrEqual(t, l.RankProbability, 1.0)
	}
}
