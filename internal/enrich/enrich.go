// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich attaches contact and funding fields to raw leads.
package enrich

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/pdiddy/leadgen/pkg/types"
)

// Enricher augments a raw lead. Implementations must not change Name or
// RankProbability.
type Enricher interface {
	Enrich(ctx context.Context, lead types.Lead) (types.Lead, error)
}

// unknownStage in the funding pool means "no funding signal".
const unknownStage = "unknown"

const fallbackDomain = "example.com"

// MockEnricher fabricates plausible contact data without network access.
// Output depends only on the lead and the configuration, so repeated runs
// produce the same enrichment.
type MockEnricher struct {
	fundingByCompany map[string]string
	stages           []string
}

// NewMockEnricher builds a MockEnricher from cfg.
func NewMockEnricher(cfg types.EnrichmentConfig) *MockEnricher {
	m := &MockEnricher{fundingByCompany: make(map[string]string, len(cfg.FundingByCompany))}
	for company, stage := range cfg.FundingByCompany {
		m.fundingByCompany[companyKey(company)] = stage
	}
	m.stages = append(m.stages, cfg.FundingStages...)
	return m
}

// Enrich fills Email, LinkedInURL and FundingSignal when they are empty.
// Fields already set by the source are kept.
func (m *MockEnricher) Enrich(ctx context.Context, lead types.Lead) (types.Lead, error) {
	if err := ctx.Err(); err != nil {
		return lead, err
	}
	if lead.Email == "" {
		lead.Email = mockEmail(lead.Name, lead.Company)
	}
	if lead.LinkedInURL == "" {
		lead.LinkedInURL = mockLinkedIn(lead.Name)
	}
	if lead.FundingSignal == "" {
		lead.FundingSignal = m.funding(lead.Company)
	}
	return lead, nil
}

// funding returns the pinned stage for a known company, otherwise a stable
// FNV-1a pick from the stage pool. Leads without a company get no signal.
func (m *MockEnricher) funding(company string) string {
	key := companyKey(company)
	if key == "" {
		return ""
	}
	if stage, ok := m.fundingByCompany[key]; ok {
		return stage
	}
	if len(m.stages) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	stage := m.stages[h.Sum32()%uint32(len(m.stages))]
	if strings.EqualFold(stage, unknownStage) {
		return ""
	}
	return stage
}

// mockEmail builds first.last@company.com from the name and company.
func mockEmail(name, company string) string {
	parts := strings.Fields(name)
	var local []string
	if len(parts) > 0 {
		local = append(local, alnum(parts[0]))
	}
	if len(parts) > 1 {
		local = append(local, alnum(parts[len(parts)-1]))
	}
	user := strings.Trim(strings.Join(local, "."), ".")
	if user == "" {
		return ""
	}

	domain := fallbackDomain
	if key := companyKey(company); key != "" {
		domain = key + ".com"
	}
	return user + "@" + domain
}

// mockLinkedIn builds https://linkedin.com/in/<name without spaces>.
func mockLinkedIn(name string) string {
	slug := alnum(name)
	if slug == "" {
		return ""
	}
	return "https://linkedin.com/in/" + slug
}

// companyKey lowercases and strips everything but letters and digits;
// "Unknown" counts as no company.
func companyKey(company string) string {
	key := alnum(company)
	if key == unknownStage {
		return ""
	}
	return key
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
