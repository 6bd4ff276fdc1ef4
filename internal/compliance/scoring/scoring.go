// Package scoring turns a list of violation occurrences into a clamped
// violation score.
//
// Score is pure domain logic: no I/O, no side effects. It receives the
// occurrence list and a type resolver and returns the score plus a
// breakdown. Identical input always yields identical output, which is what
// makes retried check submissions safe to compare.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/registry"
)

// ErrInvalidScoreOverride reports a negative per-occurrence override.
var ErrInvalidScoreOverride = errors.New("invalid score override")

// TypeResolver resolves violation type codes. *registry.Registry satisfies it.
type TypeResolver interface {
	ResolveViolationType(code string) (registry.ViolationType, error)
}

// Contribution is the resolved share of one occurrence.
type Contribution struct {
	Index      int
	Occurrence models.Occurrence
	Type       registry.ViolationType
	Points     int
	Overridden bool
}

// Result is the outcome of scoring one observation.
type Result struct {
	Score         int
	Contributions []Contribution
	Breakdown     models.ScoreBreakdown
}

// Score resolves every occurrence and sums their points, saturating into
// [registry.MinScore, registry.MaxScore]. The first unresolvable code or
// negative override fails the whole list; there is no partial scoring.
func Score(occurrences []models.Occurrence, types TypeResolver) (Result, error) {
	contributions := make([]Contribution, 0, len(occurrences))
	histogram := make(map[registry.Severity]int, len(registry.Severities()))
	for _, sev := range registry.Severities() {
		histogram[sev] = 0
	}

	raw := 0
	for i, occ := range occurrences {
		vt, err := types.ResolveViolationType(occ.TypeCode)
		if err != nil {
			return Result{}, fmt.Errorf("violation %d: %w", i, err)
		}

		points := vt.BaseScore
		overridden := false
		if occ.ScoreOverride != nil {
			if *occ.ScoreOverride < 0 {
				return Result{}, fmt.Errorf("violation %d: %w: %d is negative", i, ErrInvalidScoreOverride, *occ.ScoreOverride)
			}
			points = *occ.ScoreOverride
			overridden = true
		}

		raw = saturatingAdd(raw, points)
		histogram[vt.BaseSeverity]++
		contributions = append(contributions, Contribution{
			Index:      i,
			Occurrence: occ,
			Type:       vt,
			Points:     points,
			Overridden: overridden,
		})
	}

	score := registry.Clamp(raw)
	return Result{
		Score:         score,
		Contributions: contributions,
		Breakdown: models.ScoreBreakdown{
			RawTotal:          raw,
			Saturated:         raw > registry.MaxScore,
			SeverityBreakdown: histogram,
			Calculation:       calculation(contributions, raw, score),
		},
	}, nil
}

// saturatingAdd adds two non-negative ints without wrapping.
func saturatingAdd(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

func calculation(contributions []Contribution, raw, score int) string {
	if len(contributions) == 0 {
		return "no violations = 0"
	}
	terms := make([]string, len(contributions))
	for i, c := range contributions {
		terms[i] = strconv.Itoa(c.Points)
	}
	out := strings.Join(terms, " + ") + " = " + strconv.Itoa(raw)
	if raw != score {
		out += fmt.Sprintf(" (capped at %d)", score)
	}
	return out
}
