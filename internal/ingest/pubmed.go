// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/leadgen/internal/httputil"
	"github.com/pdiddy/leadgen/pkg/types"
)

// eutilsBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// ErrEmptyQuery is returned when a literature source has no keywords.
var ErrEmptyQuery = errors.New("search query is empty: configure at least one keyword")

const (
	pubmedSourceName   = "pubmed"
	pubmedAuthorTitle  = "Researcher"
	defaultPubMedLimit = 30

	// NCBI allows 3 requests per second without an API key, 10 with one.
	ncbiRateAnonymous = 3
	ncbiRateWithKey   = 10
)

// PubMedSource turns authors of recent matching PubMed papers into leads.
// Every author has a recent relevant publication, so IntentSignal is true.
type PubMedSource struct {
	client  *http.Client
	cfg     types.PubMedConfig
	limiter *rate.Limiter
	now     func() time.Time
}

// NewPubMedSource builds a PubMed source. A nil client gets one with the
// configured timeout.
func NewPubMedSource(client *http.Client, cfg types.PubMedConfig) *PubMedSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	rps := ncbiRateAnonymous
	if cfg.APIKey != "" {
		rps = ncbiRateWithKey
	}
	return &PubMedSource{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		now:     time.Now,
	}
}

// Name returns the source identifier.
func (s *PubMedSource) Name() string { return pubmedSourceName }

// Fetch searches PubMed for the configured keywords within the date window,
// fetches the matching articles and returns one lead per named author, in
// article then author order.
func (s *PubMedSource) Fetch(ctx context.Context) ([]types.Lead, error) {
	year := s.now().Year()
	term, err := buildPubMedTerm(s.cfg.Keywords, year-s.cfg.YearsBack, year, s.cfg.YearsBack > 0)
	if err != nil {
		return nil, err
	}

	ids, err := s.search(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	set, err := s.fetchArticles(ctx, ids)
	if err != nil {
		return nil, err
	}
	return articleLeads(set), nil
}

// buildPubMedTerm ORs the keywords together and, when withDates is set,
// restricts the publication date to the inclusive year range.
func buildPubMedTerm(keywords []string, fromYear, toYear int, withDates bool) (string, error) {
	var terms []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, kw)
		}
	}
	if len(terms) == 0 {
		return "", ErrEmptyQuery
	}

	term := "(" + strings.Join(terms, " OR ") + ")"
	if withDates {
		term += fmt.Sprintf(" AND (%d[DP] : %d[DP])", fromYear, toYear)
	}
	return term, nil
}

func (s *PubMedSource) search(ctx context.Context, term string) ([]string, error) {
	maxResults := s.cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultPubMedLimit
	}

	params := s.baseParams()
	params.Set("term", term)
	params.Set("retmax", fmt.Sprintf("%d", maxResults))
	params.Set("retmode", "json")

	resp, err := s.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed search response: %w", err)
	}
	if sr.Result.Error != "" {
		return nil, fmt.Errorf("PubMed search error: %s", sr.Result.Error)
	}

	ids := sr.Result.IDList
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

func (s *PubMedSource) fetchArticles(ctx context.Context, ids []string) (pubmedArticleSet, error) {
	params := s.baseParams()
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	resp, err := s.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return pubmedArticleSet{}, err
	}
	defer resp.Body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return pubmedArticleSet{}, fmt.Errorf("parsing PubMed articles: %w", err)
	}
	return set, nil
}

func (s *PubMedSource) baseParams() url.Values {
	params := url.Values{
		"db":   {"pubmed"},
		"tool": {"leadgen"},
	}
	if s.cfg.Email != "" {
		params.Set("email", s.cfg.Email)
	}
	if s.cfg.APIKey != "" {
		params.Set("api_key", s.cfg.APIKey)
	}
	return params
}

// get waits for the rate limiter, issues the request with 429 backoff and
// rejects non-200 responses.
func (s *PubMedSource) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := eutilsBase + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed %s request: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("PubMed %s returned HTTP %d", endpoint, resp.StatusCode)
	}
	return resp, nil
}

// articleLeads maps every author with both a fore and last name to a lead.
func articleLeads(set pubmedArticleSet) []types.Lead {
	var leads []types.Lead
	for _, article := range set.Articles {
		for _, a := range article.Authors {
			fore, last := strings.TrimSpace(a.ForeName), strings.TrimSpace(a.LastName)
			if fore == "" || last == "" {
				continue
			}
			lead := types.Lead{
				Name:         fore + " " + last,
				Title:        pubmedAuthorTitle,
				IntentSignal: true,
				Source:       pubmedSourceName,
			}
			if len(a.Affiliations) > 0 {
				lead.Company, lead.Location = splitAffiliation(a.Affiliations[0])
			}
			leads = append(leads, lead)
		}
	}
	return leads
}

// E-utilities esearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR"`
}

// E-utilities efetch PubMed XML structures.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string         `xml:"MedlineCitation>PMID"`
	Authors []pubmedAuthor `xml:"MedlineCitation>Article>AuthorList>Author"`
}

type pubmedAuthor struct {
	LastName     string   `xml:"LastName"`
	ForeName     string   `xml:"ForeName"`
	Affiliations []string `xml:"AffiliationInfo>Affiliation"`
}
