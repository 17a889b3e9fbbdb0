// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/leadgen/internal/leadstore"
	"github.com/pdiddy/leadgen/pkg/types"
)

type fakeRunner struct {
	run     types.Run
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, w io.Writer) (types.Run, error) {
	fmt.Fprintf(w, "mock: %d leads\n", len(f.run.Leads))
	fmt.Fprint(w, "warning: skipped lead 3 from mock: missing name\npartial")
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	return f.run, f.err
}

func sampleRun() types.Run {
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return types.Run{
		ID:         "run-42",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Notices:    []string{"source pubmed failed: HTTP 503"},
		Leads: []types.Lead{
			{Name: "Elena Marsh", Title: "Director of Toxicology", Company: "Hepatix Therapeutics", Location: "Boston, MA", Email: "elena.marsh@hepatixtherapeutics.com", LinkedInURL: "https://linkedin.com/in/elenamarsh", IntentSignal: true, Source: "mock", RankProbability: 0.95},
			{Name: "Rahul Iyer", Title: "Scientist", Company: "Cellora", Location: "London, UK", Email: "rahul.iyer@cellora.com", Source: "mock", RankProbability: 0.38},
		},
	}
}

func newTestServer(t *testing.T, runner Runner, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	store, err := leadstore.Open()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(runner, store, opts...)
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{})
	w := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIndexBeforeAnyRun(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{})
	w := do(t, h, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "No run has completed yet")
}

func TestLeadsBeforeAnyRun(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{})
	w := do(t, h, http.MethodGet, "/api/leads")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), leadstore.ErrNoRun.Error())
}

func TestTriggerRunAndListLeads(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{run: sampleRun()})

	w := do(t, h, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusCreated, w.Code)
	var info runInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "run-42", info.ID)
	assert.Equal(t, 2, info.LeadCount)
	assert.Equal(t, []string{"source pubmed failed: HTTP 503"}, info.Notices)

	w = do(t, h, http.MethodGet, "/api/leads")
	require.Equal(t, http.StatusOK, w.Code)
	var resp leadsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Leads, 2)
	assert.Equal(t, "Elena Marsh", resp.Leads[0].Name)
	assert.Equal(t, 1, resp.Leads[0].Rank)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Histogram[9])
	assert.Equal(t, 1, resp.Summary.Histogram[3])
}

func TestLeadsFilters(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{run: sampleRun()})
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/runs").Code)

	tests := []struct {
		query string
		code  int
		want  []string
	}{
		{"?min_score=0.5", http.StatusOK, []string{"Elena Marsh"}},
		{"?location=london", http.StatusOK, []string{"Rahul Iyer"}},
		{"?company=HEPATIX&min_score=0.9", http.StatusOK, []string{"Elena Marsh"}},
		{"?company=nobody", http.StatusOK, []string{}},
		{"?min_score=abc", http.StatusBadRequest, nil},
		{"?min_score=1.5", http.StatusBadRequest, nil},
		{"?min_score=NaN", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/leads"+tt.query)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var resp leadsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			got := []string{}
			for _, e := range resp.Leads {
				got = append(got, e.Name)
			}
			assert.Equal(t, tt.want, got)
			// Summary always covers the whole run.
			assert.Equal(t, 2, resp.Summary.Total)
		})
	}
}

func TestDraft(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{run: sampleRun()})
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/runs").Code)

	w := do(t, h, http.MethodGet, "/api/leads/1/draft")
	require.Equal(t, http.StatusOK, w.Code)
	var d draftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "elena.marsh@hepatixtherapeutics.com", d.To)
	assert.Equal(t, "Interest in 3D In-Vitro Models for Drug Safety Research", d.Subject)
	assert.Contains(t, d.Body, "Hi Elena Marsh")
	assert.True(t, strings.HasPrefix(d.Mailto, "mailto:elena.marsh@hepatixtherapeutics.com?subject="))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/leads/zero/draft").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/leads/0/draft").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/leads/9/draft").Code)
}

func TestExport(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{run: sampleRun()})
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/runs").Code)

	w := do(t, h, http.MethodGet, "/export/leads.csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="leads.csv"`, w.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Rank Probability,Name,Title,Company,Location,Email,LinkedIn", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0.95,Elena Marsh,"))

	w = do(t, h, http.MethodGet, "/export/leads.json?location=london")
	require.Equal(t, http.StatusOK, w.Code)
	var leads []types.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "Rahul Iyer", leads[0].Name)

	w = do(t, h, http.MethodGet, "/export/leads.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "- name: Elena Marsh")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/export/leads.xml").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/export/leads.csv?min_score=-1").Code)
}

func TestRunFormRedirects(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{run: sampleRun()})
	w := do(t, h, http.MethodPost, "/run")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/?min_score=0.5")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "run-42")
	assert.Contains(t, body, "Elena Marsh")
	assert.NotContains(t, body, "Rahul Iyer")
	assert.Contains(t, body, "source pubmed failed: HTTP 503")
	assert.Contains(t, body, `href="mailto:elena.marsh@hepatixtherapeutics.com?subject=Interest%20in`)
	assert.Contains(t, body, `/export/leads.csv?min_score=0.5`)
}

func TestIndexBadFilterShowsError(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{run: sampleRun()})
	require.Equal(t, http.StatusSeeOther, do(t, h, http.MethodPost, "/run").Code)

	w := do(t, h, http.MethodGet, "/?min_score=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "min_score must be a number within [0,1]")
	// Falls back to the unfiltered list.
	assert.Contains(t, w.Body.String(), "Rahul Iyer")
}

func TestConcurrentRunRejected(t *testing.T) {
	runner := &fakeRunner{
		run:     sampleRun(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, h := newTestServer(t, runner)

	done := make(chan error, 1)
	go func() {
		_, err := s.TriggerRun(context.Background())
		done <- err
	}()
	<-runner.started

	w := do(t, h, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/run").Code)

	_, err := s.TriggerRun(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(runner.release)
	require.NoError(t, <-done)
}

func TestRunFailure(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{err: errors.New("boom")})
	w := do(t, h, http.MethodPost, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// A failed run leaves the store empty.
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/leads").Code)
}

func TestMetricsRoute(t *testing.T) {
	_, h := newTestServer(t, &fakeRunner{})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "leadgen_runs_total 1\n")
	})
	_, h = newTestServer(t, &fakeRunner{}, WithMetricsHandler(metrics))
	w := do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "leadgen_runs_total")
}

func TestRunProgressIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s, _ := newTestServer(t, &fakeRunner{run: sampleRun()}, WithLogger(logger))

	_, err := s.TriggerRun(context.Background())
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `level=INFO msg="mock: 2 leads"`)
	assert.Contains(t, out, `level=WARN msg="skipped lead 3 from mock: missing name"`)
	assert.Contains(t, out, `msg=partial`)
	assert.Contains(t, out, "run_id=run-42")
}

func TestRequestsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	_, h := newTestServer(t, &fakeRunner{}, WithLogger(logger))

	do(t, h, http.MethodGet, "/healthz")
	assert.Contains(t, logs.String(), "path=/healthz")
	assert.Contains(t, logs.String(), "status=200")
}
