// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/leadgen/internal/httputil"
	"github.com/pdiddy/leadgen/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

const (
	openAlexSourceName   = "openalex"
	defaultOpenAlexLimit = 25
	maxOpenAlexPerPage   = 200
	openAlexRate         = 10
)

// OpenAlexSource turns authorships of recent matching OpenAlex works into
// leads. The first listed institution supplies company and location.
type OpenAlexSource struct {
	client   *http.Client
	cfg      types.OpenAlexConfig
	keywords []string
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewOpenAlexSource builds an OpenAlex source. fallback is used when the
// config has no keywords of its own. A nil client gets one with the
// configured timeout.
func NewOpenAlexSource(client *http.Client, cfg types.OpenAlexConfig, fallback []string) *OpenAlexSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = fallback
	}
	return &OpenAlexSource{
		client:   client,
		cfg:      cfg,
		keywords: keywords,
		limiter:  rate.NewLimiter(rate.Limit(openAlexRate), 1),
		now:      time.Now,
	}
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return openAlexSourceName }

// Fetch runs one search page and returns one lead per named author, in
// work then authorship order.
func (s *OpenAlexSource) Fetch(ctx context.Context) ([]types.Lead, error) {
	search, err := buildOpenAlexSearch(s.keywords)
	if err != nil {
		return nil, err
	}

	perPage := s.cfg.MaxResults
	if perPage <= 0 {
		perPage = defaultOpenAlexLimit
	}
	if perPage > maxOpenAlexPerPage {
		perPage = maxOpenAlexPerPage
	}

	params := url.Values{
		"search":   {search},
		"per_page": {fmt.Sprintf("%d", perPage)},
		"page":     {"1"},
	}
	if s.cfg.YearsBack > 0 {
		from := time.Date(s.now().Year()-s.cfg.YearsBack, 1, 1, 0, 0, 0, 0, time.UTC)
		params.Set("filter", "from_publication_date:"+from.Format("2006-01-02"))
	}
	if s.cfg.Email != "" {
		params.Set("mailto", s.cfg.Email)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexWorksBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return workLeads(oar.Results), nil
}

// buildOpenAlexSearch quotes each keyword and ORs them together.
func buildOpenAlexSearch(keywords []string) (string, error) {
	var terms []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ReplaceAll(kw, `"`, ""))
		if kw != "" {
			terms = append(terms, `"`+kw+`"`)
		}
	}
	if len(terms) == 0 {
		return "", ErrEmptyQuery
	}
	return strings.Join(terms, " OR "), nil
}

func workLeads(works []openAlexWork) []types.Lead {
	var leads []types.Lead
	for _, work := range works {
		for _, a := range work.Authorships {
			name := strings.TrimSpace(a.Author.DisplayName)
			if name == "" {
				continue
			}
			lead := types.Lead{
				Name:         name,
				Title:        pubmedAuthorTitle,
				IntentSignal: true,
				Source:       openAlexSourceName,
			}
			if len(a.RawAffiliations) > 0 {
				_, lead.Location = splitAffiliation(a.RawAffiliations[0])
			}
			if len(a.Institutions) > 0 {
				inst := a.Institutions[0]
				lead.Company = inst.DisplayName
				if lead.Location == "" {
					lead.Location = inst.CountryCode
				}
			} else if len(a.RawAffiliations) > 0 {
				lead.Company, _ = splitAffiliation(a.RawAffiliations[0])
			}
			leads = append(leads, lead)
		}
	}
	return leads
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Authorships []openAlexAuthorship `json:"authorships"`
}

type openAlexAuthorship struct {
	Author          openAlexAuthor        `json:"author"`
	Institutions    []openAlexInstitution `json:"institutions"`
	RawAffiliations []string              `json:"raw_affiliation_strings"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
	CountryCode string `json:"country_code"`
}
