package types

import "time"

// HTTPConfig holds shared HTTP settings used by sources that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "leadgen/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the PubMed literature source.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether PubMed is queried.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Keywords are OR'ed together into the search term.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// YearsBack bounds the publication date window ending in the current year.
	YearsBack int `json:"years_back" yaml:"years_back"`

	// MaxResults caps the number of papers fetched (default 30).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Email identifies the caller to NCBI, as E-utilities usage policy asks.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// OpenAlexConfig holds settings for the OpenAlex works source.
type OpenAlexConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether OpenAlex is queried.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Keywords are OR'ed together into the full-text search. When empty the
	// PubMed keywords are used.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// YearsBack bounds the publication date window ending today.
	YearsBack int `json:"years_back" yaml:"years_back"`

	// MaxResults caps the number of works fetched (default 25, at most 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Email places requests in the OpenAlex polite pool.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// ConferenceConfig holds settings for the conference speaker page source.
type ConferenceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether the speaker page is fetched.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// URL is the speaker listing page.
	URL string `json:"url" yaml:"url"`

	// Selector is a CSS selector matching elements whose text is a speaker
	// name. When empty or matching nothing, names are pulled from page text.
	Selector string `json:"selector" yaml:"selector"`

	// MaxNames caps the number of speakers taken from the page (default 20).
	MaxNames int `json:"max_names" yaml:"max_names"`
}

// MockConfig controls the static lead list.
type MockConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is a YAML lead list that replaces the built-in one when set.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// EnrichmentConfig drives the mock enricher.
type EnrichmentConfig struct {
	// FundingByCompany pins the funding stage for known companies.
	FundingByCompany map[string]string `json:"funding_by_company,omitempty" yaml:"funding_by_company,omitempty"`

	// FundingStages is the pool a deterministic pick is made from when the
	// company is not pinned. "unknown" yields an empty funding signal.
	FundingStages []string `json:"funding_stages" yaml:"funding_stages"`
}

// Weights is the scoring weight vector. Each weight is non-negative; the
// weights should sum to 1.0 for scores to land in [0,1] without clamping.
type Weights struct {
	Role     float64 `json:"role_weight" yaml:"role_weight"`
	Funding  float64 `json:"funding_weight" yaml:"funding_weight"`
	Location float64 `json:"location_weight" yaml:"location_weight"`
	Intent   float64 `json:"intent_weight" yaml:"intent_weight"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Role + w.Funding + w.Location + w.Intent
}

// RoleTier maps title keywords to a role-fit sub-score in [0,1].
type RoleTier struct {
	Score    float64  `json:"score" yaml:"score"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// FundingStage maps a funding stage category to a sub-score in [0,1].
type FundingStage struct {
	Stage string  `json:"stage" yaml:"stage"`
	Score float64 `json:"score" yaml:"score"`
}

// ScoringConfig holds the tables and weights the scorer is built from.
type ScoringConfig struct {
	Weights            Weights        `json:"weights" yaml:"weights"`
	RoleTiers          []RoleTier     `json:"role_tiers" yaml:"role_tiers"`
	FundingStages      []FundingStage `json:"funding_stages" yaml:"funding_stages"`
	PreferredLocations []string       `json:"preferred_locations" yaml:"preferred_locations"`
}

// PipelineConfig bounds a single run.
type PipelineConfig struct {
	// MaxLeads caps how many ingested leads are enriched and scored (default 30).
	MaxLeads int `json:"max_leads" yaml:"max_leads"`
}

// ServerConfig holds dashboard settings.
type ServerConfig struct {
	// Addr is the listen address (default "127.0.0.1:8501").
	Addr string `json:"addr" yaml:"addr"`

	// RunOnStart triggers a pipeline run when the dashboard starts.
	RunOnStart bool `json:"run_on_start" yaml:"run_on_start"`
}

// Config groups all settings for leadgen.
type Config struct {
	PubMed     PubMedConfig     `json:"pubmed" yaml:"pubmed"`
	OpenAlex   OpenAlexConfig   `json:"openalex" yaml:"openalex"`
	Conference ConferenceConfig `json:"conference" yaml:"conference"`
	Mock       MockConfig       `json:"mock" yaml:"mock"`
	Enrichment EnrichmentConfig `json:"enrichment" yaml:"enrichment"`
	Scoring    ScoringConfig    `json:"scoring" yaml:"scoring"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "leadgen/0.1"
)

// DefaultConfig returns the configuration used when no config file overrides it.
// The scoring weights normalize the 30/20/10/40 point split of role, funding,
// location and intent.
func DefaultConfig() Config {
	httpCfg := HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent}
	return Config{
		PubMed: PubMedConfig{
			HTTPConfig: httpCfg,
			Enabled:    true,
			Keywords: []string{
				"Drug-Induced Liver Injury",
				"3D cell culture",
				"Organ-on-chip",
				"Hepatic spheroids",
				"Investigative Toxicology",
			},
			YearsBack:  2,
			MaxResults: 30,
		},
		OpenAlex: OpenAlexConfig{
			HTTPConfig: httpCfg,
			YearsBack:  2,
			MaxResults: 25,
		},
		Conference: ConferenceConfig{
			HTTPConfig: httpCfg,
			MaxNames:   20,
		},
		Mock: MockConfig{Enabled: true},
		Enrichment: EnrichmentConfig{
			FundingStages: []string{"unknown", "Seed", "Series A", "Series B", "Series C", "IPO"},
		},
		Scoring: ScoringConfig{
			Weights: Weights{Role: 0.30, Funding: 0.20, Location: 0.10, Intent: 0.40},
			RoleTiers: []RoleTier{
				{Score: 1.0, Keywords: []string{
					"director", "vp", "vice president", "head", "chief", "principal",
					"toxicology", "toxicologist", "safety", "hepatic", "3d", "preclinical",
				}},
				{Score: 0.6, Keywords: []string{"scientist", "researcher", "speaker", "investigator", "professor"}},
				{Score: 0.3, Keywords: []string{"postdoc", "fellow", "associate", "analyst"}},
			},
			FundingStages: []FundingStage{
				{Stage: "Seed", Score: 0.25},
				{Stage: "Series A", Score: 0.5},
				{Stage: "Series B", Score: 0.75},
				{Stage: "Series C", Score: 0.9},
				{Stage: "Series D", Score: 1.0},
				{Stage: "IPO", Score: 1.0},
				{Stage: "Public", Score: 1.0},
			},
			PreferredLocations: []string{"Boston", "Cambridge", "San Francisco", "Basel", "London"},
		},
		Pipeline: PipelineConfig{MaxLeads: 30},
		Server:   ServerConfig{Addr: "127.0.0.1:8501"},
	}
}
