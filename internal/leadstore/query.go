// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package leadstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/leadgen/pkg/types"
)

// HistogramBuckets is the number of equal-width score buckets over [0,1].
const HistogramBuckets = 10

// Filter narrows the stored leads. Zero values match everything.
type Filter struct {
	// MinScore keeps leads with rank_probability >= MinScore.
	MinScore float64

	// Location keeps leads whose location contains this text, ignoring case.
	Location string

	// Company keeps leads whose company contains this text, ignoring case.
	Company string
}

// Entry is a stored lead with its 1-based rank in the run.
type Entry struct {
	Rank       int `json:"rank" yaml:"rank"`
	types.Lead `yaml:",inline"`
}

// Summary describes the score distribution of the stored run.
type Summary struct {
	Total     int                   `json:"total"`
	Average   float64               `json:"average"`
	Histogram [HistogramBuckets]int `json:"histogram"`
}

// Query returns the stored leads matching f, highest score first and ties
// in ingestion order.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	return queryEntries(ctx, s.db, f)
}

func queryEntries(ctx context.Context, q querier, f Filter) ([]Entry, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT seq, name, title, company, location, email, linkedin_url,
			funding_signal, intent_signal, source, rank_probability
		FROM leads WHERE 1=1`)

	if f.MinScore > 0 {
		qb.WriteString(` AND rank_probability >= ?`)
		args = append(args, f.MinScore)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		qb.WriteString(` AND instr(fold(coalesce(location, '')), ?) > 0`)
		args = append(args, strings.ToLower(loc))
	}
	if company := strings.TrimSpace(f.Company); company != "" {
		qb.WriteString(` AND instr(fold(coalesce(company, '')), ?) > 0`)
		args = append(args, strings.ToLower(company))
	}
	qb.WriteString(` ORDER BY rank_probability DESC, seq ASC`)

	rows, err := q.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying leads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Lead returns the lead at the given rank.
func (s *Store) Lead(ctx context.Context, rank int) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, name, title, company, location, email, linkedin_url,
			funding_signal, intent_signal, source, rank_probability
		FROM leads WHERE seq = ?`, rank)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("lead %d: %w", rank, ErrLeadNotFound)
	}
	return e, err
}

// summarize computes the count, mean score and score histogram. The last
// bucket includes a score of exactly 1.0.
func summarize(ctx context.Context, q querier) (Summary, error) {
	var sum Summary
	var avg sql.NullFloat64
	if err := q.QueryRowContext(ctx,
		`SELECT count(*), avg(rank_probability) FROM leads`,
	).Scan(&sum.Total, &avg); err != nil {
		return Summary{}, fmt.Errorf("summarizing leads: %w", err)
	}
	sum.Average = avg.Float64

	rows, err := q.QueryContext(ctx,
		`SELECT min(CAST(rank_probability * ? AS INTEGER), ?) AS bucket, count(*)
		FROM leads GROUP BY bucket`, HistogramBuckets, HistogramBuckets-1)
	if err != nil {
		return Summary{}, fmt.Errorf("building histogram: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bucket, n int
		if err := rows.Scan(&bucket, &n); err != nil {
			return Summary{}, fmt.Errorf("scanning histogram row: %w", err)
		}
		if bucket < 0 {
			bucket = 0
		}
		sum.Histogram[bucket] += n
	}
	return sum, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e                                         Entry
		title, company, location, email, linkedIn sql.NullString
		funding, source                           sql.NullString
	)
	err := sc.Scan(&e.Rank, &e.Name, &title, &company, &location, &email, &linkedIn,
		&funding, &e.IntentSignal, &source, &e.RankProbability)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning lead: %w", err)
	}
	e.Title = title.String
	e.Company = company.String
	e.Location = location.String
	e.Email = email.String
	e.LinkedInURL = linkedIn.String
	e.FundingSignal = funding.String
	e.Source = source.String
	return e, nil
}
