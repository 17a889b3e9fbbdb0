// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/leadgen/internal/export"
	"github.com/pdiddy/leadgen/internal/leadstore"
	"github.com/pdiddy/leadgen/internal/outreach"
	"github.com/pdiddy/leadgen/pkg/types"
)

// runInfo is the run header returned by the API, without its leads.
type runInfo struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	LeadCount  int       `json:"lead_count"`
	Notices    []string  `json:"notices,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
}

func newRunInfo(run types.Run) runInfo {
	return runInfo{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		LeadCount:  len(run.Leads),
		Notices:    run.Notices,
		Warnings:   run.Warnings,
	}
}

type leadsResponse struct {
	Run     runInfo           `json:"run"`
	Filter  filterJSON        `json:"filter"`
	Summary leadstore.Summary `json:"summary"`
	Leads   []leadstore.Entry `json:"leads"`
}

type filterJSON struct {
	MinScore float64 `json:"min_score"`
	Location string  `json:"location,omitempty"`
	Company  string  `json:"company,omitempty"`
}

type draftResponse struct {
	outreach.Draft
	Rank   int    `json:"rank"`
	Mailto string `json:"mailto"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.store.View(ctx, f)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	entries := view.Entries
	if entries == nil {
		entries = []leadstore.Entry{}
	}

	writeJSON(w, http.StatusOK, leadsResponse{
		Run:     newRunInfo(view.Run),
		Filter:  filterJSON{MinScore: f.MinScore, Location: f.Location, Company: f.Company},
		Summary: view.Summary,
		Leads:   entries,
	})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	rank, err := strconv.Atoi(chi.URLParam(r, "rank"))
	if err != nil || rank < 1 {
		writeJSONError(w, http.StatusBadRequest, "rank must be a positive integer")
		return
	}

	entry, err := s.store.Lead(r.Context(), rank)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	d := outreach.Compose(entry.Lead)
	writeJSON(w, http.StatusOK, draftResponse{Draft: d, Rank: entry.Rank, Mailto: d.MailtoURL()})
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.TriggerRun(r.Context())
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "pipeline run failed")
		return
	}
	writeJSON(w, http.StatusCreated, newRunInfo(run))
}

func (s *Server) handleRunForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.TriggerRun(r.Context()); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "pipeline run failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	switch format {
	case export.FormatCSV, export.FormatJSON, export.FormatYAML:
	default:
		http.Error(w, fmt.Sprintf("unsupported export format %q", format), http.StatusNotFound)
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := s.store.Query(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "export query failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	leads := make([]types.Lead, len(entries))
	for i, e := range entries {
		leads[i] = e.Lead
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leads.%s"`, format))
	if err := export.Write(w, format, leads); err != nil {
		s.logger.ErrorContext(r.Context(), "writing export failed", "format", format, "error", err)
	}
}

// storeError maps store errors onto API responses.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, leadstore.ErrNoRun):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, leadstore.ErrLeadNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "lead store error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseFilter reads min_score, location and company from a query string.
func parseFilter(q url.Values) (leadstore.Filter, error) {
	f := leadstore.Filter{
		Location: strings.TrimSpace(q.Get("location")),
		Company:  strings.TrimSpace(q.Get("company")),
	}
	if v := strings.TrimSpace(q.Get("min_score")); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || !(score >= 0 && score <= 1) {
			return leadstore.Filter{}, fmt.Errorf("min_score must be a number within [0,1], got %q", v)
		}
		f.MinScore = score
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
