// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package leadstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/leadgen/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() types.Run {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return types.Run{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Notices:    []string{"source pubmed failed: timeout"},
		Warnings:   []string{"skipped lead 4 from mock: missing name"},
		Leads: []types.Lead{
			{Name: "Elena Marsh", Title: "Director", Company: "Hepatix Therapeutics", Location: "Boston, MA", Email: "elena.marsh@hepatixtherapeutics.com", IntentSignal: true, Source: "mock", RankProbability: 0.95},
			{Name: "Jonas Keller", Company: "Roche Pharma Research", Location: "Basel, Switzerland", Source: "pubmed", RankProbability: 0.5},
			{Name: "Grace Okafor", Company: "Spheroid Systems", Location: "Cambridge, MA", Source: "mock", RankProbability: 0.5},
			{Name: "Tomasz Kowal", Source: "conference", RankProbability: 0},
		},
	}
}

func latest(ctx context.Context, s *Store) (types.Run, error) {
	v, err := s.View(ctx, Filter{})
	return v.Run, err
}

func leadNames(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestViewEmpty(t *testing.T) {
	s := testStore(t)
	_, err := latest(context.Background(), s)
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestReplaceAndView(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	want := sampleRun()
	require.NoError(t, s.Replace(ctx, want))

	got, err := latest(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.True(t, want.FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, want.Notices, got.Notices)
	assert.Equal(t, want.Warnings, got.Warnings)
	assert.Equal(t, want.Leads, got.Leads)
}

func TestReplaceDiscardsPreviousRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, sampleRun()))

	next := types.Run{ID: "run-2", Leads: []types.Lead{{Name: "Only One", RankProbability: 0.4}}}
	require.NoError(t, s.Replace(ctx, next))

	got, err := latest(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.ID)
	require.Len(t, got.Leads, 1)
	assert.Equal(t, "Only One", got.Leads[0].Name)
	assert.Empty(t, got.Notices)
}

func TestQueryFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, sampleRun()))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter keeps rank order", Filter{}, []string{"Elena Marsh", "Jonas Keller", "Grace Okafor", "Tomasz Kowal"}},
		{"min score inclusive", Filter{MinScore: 0.5}, []string{"Elena Marsh", "Jonas Keller", "Grace Okafor"}},
		{"min score above all", Filter{MinScore: 0.99}, nil},
		{"location substring any case", Filter{Location: " ma"}, []string{"Elena Marsh", "Grace Okafor"}},
		{"company substring", Filter{Company: "ROCHE"}, []string{"Jonas Keller"}},
		{"combined", Filter{MinScore: 0.6, Location: "cambridge"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, leadNames(got))
		})
	}
}

func TestQueryRanksAreRunPositions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, sampleRun()))

	got, err := s.Query(ctx, Filter{Location: "cambridge"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Rank)
}

func TestLead(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, sampleRun()))

	e, err := s.Lead(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Jonas Keller", e.Name)
	assert.Equal(t, "pubmed", e.Source)

	_, err = s.Lead(ctx, 99)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestSummary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	empty, err := summarize(ctx, s.db)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, empty)

	run := types.Run{ID: "r", Leads: []types.Lead{
		{Name: "a", RankProbability: 1.0},
		{Name: "b", RankProbability: 0.95},
		{Name: "c", RankProbability: 0.5},
		{Name: "d", RankProbability: 0.05},
		{Name: "e", RankProbability: 0},
	}}
	require.NoError(t, s.Replace(ctx, run))

	sum, err := summarize(ctx, s.db)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Total)
	assert.InDelta(t, 0.5, sum.Average, 1e-9)
	assert.Equal(t, [HistogramBuckets]int{2, 0, 0, 0, 0, 1, 0, 0, 0, 2}, sum.Histogram)
}

func TestQueryFiltersFoldNonASCII(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run := types.Run{ID: "run-u", Leads: []types.Lead{
		{Name: "Lena Vogt", Company: "Ärzteverbund Zürich", Location: "Zürich, Switzerland", RankProbability: 0.7},
		{Name: "Jonas Keller", Company: "Roche", Location: "Basel, Switzerland", RankProbability: 0.6},
	}}
	require.NoError(t, s.Replace(ctx, run))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"upper-case umlaut location", Filter{Location: "ZÜRICH"}, []string{"Lena Vogt"}},
		{"upper-case umlaut company", Filter{Company: "ÄRZTE"}, []string{"Lena Vogt"}},
		{"ascii still matches", Filter{Location: "SWITZERLAND"}, []string{"Lena Vogt", "Jonas Keller"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, leadNames(got))
		})
	}
}

func TestViewCorruptRunHeader(t *testing.T) {
	tests := []struct {
		name   string
		column string
		value  string
		want   string
	}{
		{"bad start time", "started_at", "yesterday", "parsing start time of run run-1"},
		{"bad finish time", "finished_at", "", "parsing finish time of run run-1"},
		{"bad notices", "notices", "{not json", "decoding notices of run run-1"},
		{"bad warnings", "warnings", "[1,", "decoding warnings of run run-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStore(t)
			ctx := context.Background()
			require.NoError(t, s.Replace(ctx, sampleRun()))
			_, err := s.db.ExecContext(ctx, `UPDATE runs SET `+tt.column+` = ?`, tt.value)
			require.NoError(t, err)

			_, err = latest(ctx, s)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestView(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.View(ctx, Filter{})
	assert.ErrorIs(t, err, ErrNoRun)

	require.NoError(t, s.Replace(ctx, sampleRun()))
	v, err := s.View(ctx, Filter{Location: "ma"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", v.Run.ID)
	assert.Len(t, v.Run.Leads, 4)
	assert.Equal(t, []string{"Elena Marsh", "Grace Okafor"}, leadNames(v.Entries))
	assert.Equal(t, 4, v.Summary.Total)

	next := types.Run{ID: "run-2", Leads: []types.Lead{{Name: "Only One", Location: "Boston, MA", RankProbability: 0.4}}}
	require.NoError(t, s.Replace(ctx, next))
	v, err = s.View(ctx, Filter{Location: "ma"})
	require.NoError(t, err)

	assert.Equal(t, "run-2", v.Run.ID)
	assert.Equal(t, []string{"Only One"}, leadNames(v.Entries))
	assert.Equal(t, 1, v.Summary.Total)
}
