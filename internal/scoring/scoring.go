// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring assigns each lead a rank probability from a weighted sum of
// four normalized sub-scores (role fit, funding, location, intent) and orders
// a lead collection by it.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/leadgen/pkg/types"
)

// SubScores holds the four normalized feature scores of a lead, each in [0,1].
type SubScores struct {
	Role     float64 `json:"role"`
	Funding  float64 `json:"funding"`
	Location float64 `json:"location"`
	Intent   float64 `json:"intent"`
}

// Combine returns the weighted sum of sub-scores clamped to [0,1].
func Combine(s SubScores, w types.Weights) float64 {
	total := s.Role*w.Role + s.Funding*w.Funding + s.Location*w.Location + s.Intent*w.Intent
	return math.Max(0, math.Min(1, total))
}

// Scorer computes rank probabilities from a validated ScoringConfig.
// A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	weights   types.Weights
	tiers     []roleTier
	funding   map[string]float64
	locations []string
}

type roleTier struct {
	score    float64
	keywords []string // normalized, space separated words
}

// New validates cfg and builds a Scorer. Configuration errors are returned
// here so that no per-lead check is needed later.
func New(cfg types.ScoringConfig) (*Scorer, error) {
	if v := Validate(cfg); !v.OK() {
		return nil, v.Err()
	}

	s := &Scorer{
		weights: cfg.Weights,
		funding: make(map[string]float64, len(cfg.FundingStages)),
	}
	for _, t := range cfg.RoleTiers {
		rt := roleTier{score: t.Score}
		for _, kw := range t.Keywords {
			rt.keywords = append(rt.keywords, normalizeWords(kw))
		}
		s.tiers = append(s.tiers, rt)
	}
	// Highest tier first so the first match is the best match.
	sort.SliceStable(s.tiers, func(i, j int) bool {
		return s.tiers[i].score > s.tiers[j].score
	})
	for _, f := range cfg.FundingStages {
		s.funding[normalizeWords(f.Stage)] = f.Score
	}
	for _, loc := range cfg.PreferredLocations {
		s.locations = append(s.locations, strings.ToLower(strings.TrimSpace(loc)))
	}
	return s, nil
}

// SubScores computes the normalized feature scores for l. Empty fields
// score 0.
func (s *Scorer) SubScores(l types.Lead) SubScores {
	return SubScores{
		Role:     s.roleScore(l.Title),
		Funding:  s.fundingScore(l.FundingSignal),
		Location: s.locationScore(l.Location),
		Intent:   intentScore(l.IntentSignal),
	}
}

// Score returns the rank probability of l.
func (s *Scorer) Score(l types.Lead) float64 {
	return Combine(s.SubScores(l), s.weights)
}

// Apply returns a copy of leads with RankProbability set, sorted by
// RankProbability descending. Equal scores keep their input order. The input
// slice is not modified.
func (s *Scorer) Apply(leads []types.Lead) []types.Lead {
	out := make([]types.Lead, len(leads))
	for i, l := range leads {
		l.RankProbability = s.Score(l)
		out[i] = l
	}
	Rank(out)
	return out
}

// Rank sorts leads in place by RankProbability descending. The sort is stable:
// ties stay in first-seen order.
func Rank(leads []types.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].RankProbability > leads[j].RankProbability
	})
}

func (s *Scorer) roleScore(title string) float64 {
	padded := " " + normalizeWords(title) + " "
	if padded == "  " {
		return 0
	}
	for _, t := range s.tiers {
		for _, kw := range t.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return t.score
			}
		}
	}
	return 0
}

func (s *Scorer) fundingScore(signal string) float64 {
	key := normalizeWords(signal)
	if key == "" {
		return 0
	}
	return s.funding[key]
}

func (s *Scorer) locationScore(location string) float64 {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return 0
	}
	for _, pref := range s.locations {
		if strings.Contains(loc, pref) {
			return 1
		}
	}
	return 0
}

func intentScore(signal bool) float64 {
	if signal {
		return 1
	}
	return 0
}

// normalizeWords lowercases s, turns every non letter/digit rune into a
// separator and joins the resulting words with single spaces, so
// "VP, Research & Development" becomes "vp research development".
func normalizeWords(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// String renders the sub-scores compactly for table output.
func (s SubScores) String() string {
	return fmt.Sprintf("role=%.2f funding=%.2f location=%.2f intent=%.2f",
		s.Role, s.Funding, s.Location, s.Intent)
}
