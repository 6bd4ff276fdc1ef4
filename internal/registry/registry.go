// Package registry holds the immutable reference catalogs (marketplaces,
// violation types, action thresholds) that scoring and recording resolve
// against.
//
// A Registry is built once at process start and is read-only afterwards, so
// it is safe for concurrent use without locking. Construction validates the
// threshold bands: the five ranges must be contiguous, non-overlapping, cover
// exactly [MinScore, MaxScore] and ascend in severity. A Registry that fails
// validation is never returned.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// MinScore and MaxScore bound every violation score.
	MinScore = 0
	MaxScore = 100
)

var (
	ErrUnknownMarketplace   = errors.New("unknown marketplace")
	ErrUnknownViolationType = errors.New("unknown violation type")
	ErrThresholdCoverage    = errors.New("action thresholds do not cover the score range")
	ErrInvalidReferenceData = errors.New("invalid reference data")
)

// marketplaceAliases maps common alternate spellings onto canonical codes.
var marketplaceAliases = map[string]string{
	"gb": "uk",
}

// Registry is the process-wide, read-only reference data lookup.
type Registry struct {
	marketplaces   map[string]Marketplace
	violationTypes map[string]ViolationType
	thresholds     []ActionThreshold // sorted by MinScore
}

// New validates seed and builds a Registry from it.
func New(seed Seed) (*Registry, error) {
	r := &Registry{
		marketplaces:   make(map[string]Marketplace, len(seed.Marketplaces)),
		violationTypes: make(map[string]ViolationType, len(seed.ViolationTypes)),
	}

	for _, m := range seed.Marketplaces {
		code := NormalizeMarketplaceCode(m.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: marketplace code is required", ErrInvalidReferenceData)
		}
		if _, dup := r.marketplaces[code]; dup {
			return nil, fmt.Errorf("%w: duplicate marketplace %q", ErrInvalidReferenceData, code)
		}
		m.Code = code
		r.marketplaces[code] = m
	}

	for _, vt := range seed.ViolationTypes {
		code := normalizeCode(vt.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: violation type code is required", ErrInvalidReferenceData)
		}
		if _, dup := r.violationTypes[code]; dup {
			return nil, fmt.Errorf("%w: duplicate violation type %q", ErrInvalidReferenceData, code)
		}
		if !vt.BaseSeverity.IsValid() {
			return nil, fmt.Errorf("%w: violation type %q has invalid severity %q", ErrInvalidReferenceData, code, vt.BaseSeverity)
		}
		if vt.BaseScore < 0 {
			return nil, fmt.Errorf("%w: violation type %q has negative base score", ErrInvalidReferenceData, code)
		}
		vt.Code = code
		r.violationTypes[code] = vt
	}

	thresholds, err := validateThresholds(seed.ActionThresholds)
	if err != nil {
		return nil, err
	}
	r.thresholds = thresholds
	return r, nil
}

// MustDefault builds the registry from DefaultSeed and panics if the built-in
// data is inconsistent. Intended for tests and tooling.
func MustDefault() *Registry {
	r, err := New(DefaultSeed())
	if err != nil {
		panic(err)
	}
	return r
}

// validateThresholds enforces the band invariants and returns the bands
// sorted by MinScore.
func validateThresholds(in []ActionThreshold) ([]ActionThreshold, error) {
	if len(in) != len(actionRank) {
		return nil, fmt.Errorf("%w: expected %d bands, got %d", ErrThresholdCoverage, len(actionRank), len(in))
	}

	bands := make([]ActionThreshold, len(in))
	copy(bands, in)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinScore < bands[j].MinScore })

	seen := make(map[Action]struct{}, len(bands))
	next := MinScore
	for i, b := range bands {
		if !b.Action.IsValid() {
			return nil, fmt.Errorf("%w: unknown action %q", ErrThresholdCoverage, b.Action)
		}
		if _, dup := seen[b.Action]; dup {
			return nil, fmt.Errorf("%w: action %s appears twice", ErrThresholdCoverage, b.Action)
		}
		seen[b.Action] = struct{}{}
		if b.MinScore > b.MaxScore {
			return nil, fmt.Errorf("%w: %s has min %d above max %d", ErrThresholdCoverage, b.Action, b.MinScore, b.MaxScore)
		}
		if b.MinScore != next {
			if b.MinScore > next {
				return nil, fmt.Errorf("%w: scores %d..%d are not covered", ErrThresholdCoverage, next, b.MinScore-1)
			}
			return nil, fmt.Errorf("%w: %s overlaps the previous band at %d", ErrThresholdCoverage, b.Action, b.MinScore)
		}
		if b.Action.Rank() != i {
			return nil, fmt.Errorf("%w: %s is out of severity order", ErrThresholdCoverage, b.Action)
		}
		next = b.MaxScore + 1
	}
	if next != MaxScore+1 {
		return nil, fmt.Errorf("%w: bands end at %d, want %d", ErrThresholdCoverage, next-1, MaxScore)
	}
	return bands, nil
}

// NormalizeMarketplaceCode lowercases, trims and resolves aliases.
func NormalizeMarketplaceCode(code string) string {
	code = normalizeCode(code)
	if canonical, ok := marketplaceAliases[code]; ok {
		return canonical
	}
	return code
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ResolveMarketplace looks up a marketplace by code (aliases accepted).
func (r *Registry) ResolveMarketplace(code string) (Marketplace, error) {
	m, ok := r.marketplaces[NormalizeMarketplaceCode(code)]
	if !ok {
		return Marketplace{}, fmt.Errorf("%w: %q", ErrUnknownMarketplace, code)
	}
	return m, nil
}

// ResolveViolationType looks up a violation type by code.
func (r *Registry) ResolveViolationType(code string) (ViolationType, error) {
	vt, ok := r.violationTypes[normalizeCode(code)]
	if !ok {
		return ViolationType{}, fmt.Errorf("%w: %q", ErrUnknownViolationType, code)
	}
	return vt, nil
}

// ResolveAction returns the band containing score. Scores outside
// [MinScore, MaxScore] are clamped first, so the function is total.
func (r *Registry) ResolveAction(score int) ActionThreshold {
	score = Clamp(score)
	for _, b := range r.thresholds {
		if b.Contains(score) {
			return b
		}
	}
	// Unreachable: New rejects registries whose bands leave gaps.
	panic(fmt.Sprintf("registry: no action band for score %d", score))
}

// Clamp saturates score into [MinScore, MaxScore].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Marketplaces returns all marketplaces ordered by code.
func (r *Registry) Marketplaces() []Marketplace {
	out := make([]Marketplace, 0, len(r.marketplaces))
	for _, m := range r.marketplaces {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ViolationTypes returns all violation types ordered by code.
func (r *Registry) ViolationTypes() []ViolationType {
	out := make([]ViolationType, 0, len(r.violationTypes))
	for _, vt := range r.violationTypes {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Thresholds returns the action bands in ascending score order.
func (r *Registry) Thresholds() []ActionThreshold {
	out := make([]ActionThreshold, len(r.thresholds))
	copy(out, r.thresholds)
	return out
}
