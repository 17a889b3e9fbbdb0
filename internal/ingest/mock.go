// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	_ "embed"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/leadgen/pkg/types"
)

const mockSourceName = "mock"

//go:embed mock_leads.yaml
var defaultMockLeads []byte

// MockSource serves a fixed lead list. It never fails, which makes it the
// fallback data set when network sources are down.
type MockSource struct {
	leads []types.Lead
}

// NewMockSource returns a source serving the built-in lead list.
func NewMockSource() (*MockSource, error) {
	leads, err := parseMockLeads(defaultMockLeads)
	if err != nil {
		return nil, err
	}
	return &MockSource{leads: leads}, nil
}

// LoadMockSource reads a YAML lead list from r.
func LoadMockSource(r io.Reader) (*MockSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading mock leads: %w", err)
	}
	leads, err := parseMockLeads(data)
	if err != nil {
		return nil, err
	}
	return &MockSource{leads: leads}, nil
}

func parseMockLeads(data []byte) ([]types.Lead, error) {
	var leads []types.Lead
	if err := yaml.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("parsing mock leads: %w", err)
	}
	for i := range leads {
		leads[i].Source = mockSourceName
		// Scores are always derived, never ingested.
		leads[i].RankProbability = 0
	}
	return leads, nil
}

// Name returns the source identifier.
func (s *MockSource) Name() string { return mockSourceName }

// Fetch returns a copy of the mock list so callers cannot alter it.
func (s *MockSource) Fetch(ctx context.Context) ([]types.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}
