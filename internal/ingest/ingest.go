// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest produces raw leads from external sources: PubMed and
// OpenAlex authors, conference speaker pages and a static mock list.
// Sources return a finite list capped by their own configuration; they do
// not deduplicate.
package ingest

import (
	"context"
	"strings"

	"github.com/pdiddy/leadgen/pkg/types"
)

// Source produces raw leads. Each source (PubMed, conference page, mock
// list) implements this interface; the pipeline calls them in order.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]types.Lead, error)
}

// splitAffiliation derives company and location from a free-text
// affiliation: the company is the first comma separated part, the location
// the last two parts. "Acme Bio, Boston, MA." yields ("Acme Bio", "Boston, MA").
func splitAffiliation(affil string) (company, location string) {
	// PubMed appends "Electronic address: x@y" to some affiliations.
	if i := strings.Index(affil, "Electronic address:"); i >= 0 {
		affil = affil[:i]
	}
	affil = strings.TrimRight(strings.TrimSpace(affil), ".; ")
	if affil == "" {
		return "", ""
	}

	parts := strings.Split(affil, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	company = parts[0]
	if n := len(parts); n > 1 {
		location = parts[n-2] + ", " + parts[n-1]
	}
	return company, location
}
