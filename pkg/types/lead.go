// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the leadgen pipeline.
// Lead is the record that flows through ingestion, enrichment, scoring and
// presentation; Run is one finished pass over a fresh Lead collection.
package types

import (
	"strings"
	"time"
)

// Lead is a candidate contact evaluated for sales outreach. Optional fields
// default to their zero values; scoring treats a zero value as the lowest
// scoring case for that feature.
type Lead struct {
	// Name identifies the person. Required: leads without a name are
	// skipped before enrichment.
	Name string `json:"name" yaml:"name"`

	// Title is free-form role text (e.g. "Director of Toxicology").
	Title string `json:"title" yaml:"title"`

	// Company is the organization name.
	Company string `json:"company" yaml:"company"`

	// Location is a free-form geographic descriptor (e.g. "Boston, MA").
	Location string `json:"location" yaml:"location"`

	// Email is a contact address. Fabricated by the mock enricher, not validated.
	Email string `json:"email" yaml:"email"`

	// LinkedInURL is a profile link. Fabricated by the mock enricher.
	LinkedInURL string `json:"linkedin_url" yaml:"linkedin_url"`

	// FundingSignal is the company funding stage (e.g. "Seed", "Series B",
	// "IPO"). Empty means unknown.
	FundingSignal string `json:"funding_signal" yaml:"funding_signal"`

	// IntentSignal reports scientific intent, such as a recent relevant
	// publication.
	IntentSignal bool `json:"intent_signal" yaml:"intent_signal"`

	// Source names the ingestion source that produced the lead
	// (e.g. "pubmed", "conference", "mock").
	Source string `json:"source" yaml:"source"`

	// RankProbability is the score in [0,1]. Only the scoring stage sets it.
	RankProbability float64 `json:"rank_probability" yaml:"rank_probability"`
}

// HasName reports whether the lead carries the required name field.
func (l Lead) HasName() bool {
	return strings.TrimSpace(l.Name) != ""
}

// Run is the outcome of one pipeline pass.
type Run struct {
	// ID uniquely identifies the run.
	ID string `json:"id" yaml:"id"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Leads are scored and sorted by RankProbability descending, ties in
	// first-seen ingestion order.
	Leads []Lead `json:"leads" yaml:"leads"`

	// Notices are user-visible transport problems (a source failed and the
	// run continued without it).
	Notices []string `json:"notices,omitempty" yaml:"notices,omitempty"`

	// Warnings are data problems such as skipped leads.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
