// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/pdiddy/leadgen/internal/leadstore"
	"github.com/pdiddy/leadgen/internal/outreach"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"score": func(p float64) string { return fmt.Sprintf("%.2f", p) },
	"pct":   barWidth,
	"bucketLabel": func(i int) string {
		lo := float64(i) / leadstore.HistogramBuckets
		return fmt.Sprintf("%.1f-%.1f", lo, lo+1.0/leadstore.HistogramBuckets)
	},
	// Mail clients need the raw mailto scheme, which html/template would
	// otherwise rewrite as unsafe.
	"mailto": func(d outreach.Draft) template.URL { return template.URL(d.MailtoURL()) },
}).ParseFS(templateFS, "templates/index.html"))

type pageRow struct {
	leadstore.Entry
	Draft outreach.Draft
}

type pageData struct {
	HasRun       bool
	RunID        string
	FinishedAt   string
	Notices      []string
	Warnings     []string
	Filter       leadstore.Filter
	FilterError  string
	Summary      leadstore.Summary
	HistogramMax int
	Rows         []pageRow
	ExportQuery  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data pageData

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		data.FilterError = err.Error()
		f = leadstore.Filter{}
	}
	data.Filter = f
	data.ExportQuery = filterQuery(f)

	view, err := s.store.View(ctx, f)
	switch {
	case errors.Is(err, leadstore.ErrNoRun):
	case err != nil:
		s.logger.ErrorContext(ctx, "loading run failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	default:
		data.HasRun = true
		data.RunID = view.Run.ID
		data.FinishedAt = view.Run.FinishedAt.Format("2006-01-02 15:04:05 MST")
		data.Notices = view.Run.Notices
		data.Warnings = view.Run.Warnings
		data.Summary = view.Summary

		for _, e := range view.Entries {
			data.Rows = append(data.Rows, pageRow{Entry: e, Draft: outreach.Compose(e.Lead)})
		}
		for _, n := range data.Summary.Histogram {
			data.HistogramMax = max(data.HistogramMax, n)
		}
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.logger.ErrorContext(ctx, "rendering dashboard failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// filterQuery encodes f so download links carry the active filters.
func filterQuery(f leadstore.Filter) string {
	q := url.Values{}
	if f.MinScore > 0 {
		q.Set("min_score", fmt.Sprintf("%g", f.MinScore))
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.Company != "" {
		q.Set("company", f.Company)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// barWidth scales n against top into a 0-100 percentage.
func barWidth(n, top int) int {
	if top <= 0 {
		return 0
	}
	return n * 100 / top
}
