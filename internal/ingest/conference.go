// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/leadgen/internal/httputil"
	"github.com/pdiddy/leadgen/pkg/types"
)

const (
	conferenceSourceName = "conference"
	speakerTitle         = "Speaker"
	defaultMaxNames      = 20
)

// namePattern matches a capitalized "First Last" pair in running text.
var namePattern = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)

// ConferenceSource scrapes speaker names from a conference program page.
// Speakers have no known publication, so IntentSignal is false.
type ConferenceSource struct {
	client *http.Client
	cfg    types.ConferenceConfig
}

// NewConferenceSource builds a conference source. A nil client gets one
// with the configured timeout.
func NewConferenceSource(client *http.Client, cfg types.ConferenceConfig) *ConferenceSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ConferenceSource{client: client, cfg: cfg}
}

// Name returns the source identifier.
func (s *ConferenceSource) Name() string { return conferenceSourceName }

// Fetch downloads the speaker page and returns one lead per distinct name.
// Names come from elements matching the configured selector; when the
// selector is empty or matches nothing, "First Last" pairs are pulled from
// the page text instead.
func (s *ConferenceSource) Fetch(ctx context.Context) ([]types.Lead, error) {
	if s.cfg.URL == "" {
		return nil, errors.New("conference source has no page URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("conference page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("conference page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing conference page: %w", err)
	}

	maxNames := s.cfg.MaxNames
	if maxNames <= 0 {
		maxNames = defaultMaxNames
	}

	names := selectNames(doc, s.cfg.Selector)
	if len(names) == 0 {
		names = namePattern.FindAllString(doc.Find("body").Text(), -1)
	}
	names = uniqueNames(names, maxNames)

	leads := make([]types.Lead, 0, len(names))
	for _, n := range names {
		leads = append(leads, types.Lead{
			Name:   n,
			Title:  speakerTitle,
			Source: conferenceSourceName,
		})
	}
	return leads, nil
}

func selectNames(doc *goquery.Document, selector string) []string {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	var names []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if n := strings.Join(strings.Fields(sel.Text()), " "); n != "" {
			names = append(names, n)
		}
	})
	return names
}

// uniqueNames drops repeats (case-insensitive) keeping first occurrences,
// up to max names.
func uniqueNames(names []string, max int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
		if len(out) == max {
			break
		}
	}
	return out
}
