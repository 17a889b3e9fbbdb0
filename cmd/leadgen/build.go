// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/leadgen/internal/enrich"
	"github.com/pdiddy/leadgen/internal/ingest"
	"github.com/pdiddy/leadgen/internal/metrics"
	"github.com/pdiddy/leadgen/internal/pipeline"
	"github.com/pdiddy/leadgen/internal/scoring"
	"github.com/pdiddy/leadgen/pkg/types"
)

// buildSources returns the enabled ingestion sources in run order:
// PubMed, OpenAlex, conference page, then the built-in list.
func buildSources(cfg types.Config, w io.Writer) ([]ingest.Source, error) {
	var sources []ingest.Source
	if cfg.PubMed.Enabled {
		sources = append(sources, ingest.NewPubMedSource(nil, cfg.PubMed))
	}
	if cfg.OpenAlex.Enabled {
		sources = append(sources, ingest.NewOpenAlexSource(nil, cfg.OpenAlex, cfg.PubMed.Keywords))
	}
	if cfg.Conference.Enabled {
		if cfg.Conference.URL == "" {
			fmt.Fprintln(w, "warning: conference source enabled without conference.url; skipping it")
		} else {
			sources = append(sources, ingest.NewConferenceSource(nil, cfg.Conference))
		}
	}
	if cfg.Mock.Enabled {
		mock, err := mockSource(cfg.Mock)
		if err != nil {
			return nil, err
		}
		sources = append(sources, mock)
	}
	if len(sources) == 0 {
		return nil, errors.New("no lead sources enabled: enable pubmed, openalex, conference or mock in the config")
	}
	return sources, nil
}

// mockSource serves the lead list at cfg.Path, or the built-in list when no
// path is configured.
func mockSource(cfg types.MockConfig) (*ingest.MockSource, error) {
	if cfg.Path == "" {
		return ingest.NewMockSource()
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening mock lead list: %w", err)
	}
	defer f.Close()
	return ingest.LoadMockSource(f)
}

// buildPipeline wires sources, the mock enricher and the scorer from cfg.
func buildPipeline(cfg types.Config, w io.Writer, rec *metrics.Recorder) (*pipeline.Pipeline, *scoring.Scorer, error) {
	sources, err := buildSources(cfg, w)
	if err != nil {
		return nil, nil, err
	}
	scorer, err := scoring.New(cfg.Scoring)
	if err != nil {
		return nil, nil, err
	}
	enricher := enrich.NewMockEnricher(cfg.Enrichment)

	p := pipeline.New(sources, enricher, scorer, cfg.Pipeline.MaxLeads, pipeline.WithMetrics(rec))
	return p, scorer, nil
}
