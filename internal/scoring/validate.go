// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/leadgen/pkg/types"
)

// weightSumTolerance absorbs float rounding when checking that weights sum to 1.
const weightSumTolerance = 1e-9

// Validation collects configuration problems. Errors make the configuration
// unusable; warnings are reported but do not stop a run.
type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// OK reports whether no errors were found.
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err returns all errors as a single error, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("scoring config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// Validate checks weights, keyword tiers, funding stages and the preferred
// location set.
func Validate(cfg types.ScoringConfig) Validation {
	var v Validation

	checkWeight := func(name string, w float64) {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			v.addErr("scoring.weights.%s must be a non-negative number, got %v", name, w)
		}
	}
	checkWeight("role_weight", cfg.Weights.Role)
	checkWeight("funding_weight", cfg.Weights.Funding)
	checkWeight("location_weight", cfg.Weights.Location)
	checkWeight("intent_weight", cfg.Weights.Intent)

	if v.OK() {
		sum := cfg.Weights.Sum()
		switch {
		case sum == 0:
			v.addWarn("scoring weights are all zero; every lead will score 0")
		case math.Abs(sum-1) > weightSumTolerance:
			v.addWarn("scoring weights sum to %.3f, not 1.0; rank probability is clamped to [0,1]", sum)
		}
	}

	validScore := func(s float64) bool {
		return !math.IsNaN(s) && s >= 0 && s <= 1
	}

	for i, t := range cfg.RoleTiers {
		if !validScore(t.Score) {
			v.addErr("scoring.role_tiers[%d].score must be within [0,1], got %v", i, t.Score)
		}
		if len(t.Keywords) == 0 {
			v.addErr("scoring.role_tiers[%d].keywords must have at least 1 term", i)
		}
		for j, kw := range t.Keywords {
			if normalizeWords(kw) == "" {
				v.addErr("scoring.role_tiers[%d].keywords[%d] cannot be empty", i, j)
			}
		}
	}
	if len(cfg.RoleTiers) == 0 {
		v.addWarn("scoring.role_tiers is empty; every lead gets the minimum role-fit score")
	}

	seenStage := map[string]int{}
	for i, f := range cfg.FundingStages {
		key := normalizeWords(f.Stage)
		if key == "" {
			v.addErr("scoring.funding_stages[%d].stage is required", i)
			continue
		}
		if prev, ok := seenStage[key]; ok {
			v.addErr("scoring.funding_stages[%d] duplicates stage %q from entry %d", i, f.Stage, prev)
		}
		seenStage[key] = i
		if !validScore(f.Score) {
			v.addErr("scoring.funding_stages[%d].score must be within [0,1], got %v", i, f.Score)
		}
	}

	for i, loc := range cfg.PreferredLocations {
		if strings.TrimSpace(loc) == "" {
			v.addErr("scoring.preferred_locations[%d] cannot be empty", i)
		}
	}
	if len(cfg.PreferredLocations) == 0 {
		v.addWarn("scoring.preferred_locations is empty; every lead gets the minimum location score")
	}

	return v
}
