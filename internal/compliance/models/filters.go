package models

import (
	"time"

	"listingwatch/internal/registry"
	dErrors "listingwatch/pkg/domain-errors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	DefaultStatsDays = 30
	MaxStatsDays     = 365
)

// ResultFilter narrows result listings. Zero values mean "no filter".
type ResultFilter struct {
	Marketplaces []string
	RiskLevel    RiskLevel
	MinScore     *int
	Limit        int
	Offset       int
}

// Normalize applies defaults. Marketplaces is replaced, not rewritten in
// place.
func (f *ResultFilter) Normalize() {
	if len(f.Marketplaces) > 0 {
		codes := make([]string, len(f.Marketplaces))
		for i, m := range f.Marketplaces {
			codes[i] = registry.NormalizeMarketplaceCode(m)
		}
		f.Marketplaces = codes
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
}

// Validate checks ranges.
func (f *ResultFilter) Validate() error {
	if f.Limit < 1 || f.Limit > MaxListLimit {
		return dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 200")
	}
	if f.Offset < 0 {
		return dErrors.New(dErrors.CodeValidation, "offset cannot be negative")
	}
	if f.MinScore != nil && (*f.MinScore < registry.MinScore || *f.MinScore > registry.MaxScore) {
		return dErrors.New(dErrors.CodeValidation, "min_score must be between 0 and 100")
	}
	if f.RiskLevel != "" && !f.RiskLevel.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "risk_level must be low, medium or high")
	}
	return nil
}

// Matches reports whether check passes the filter, ignoring paging.
func (f *ResultFilter) Matches(c *ComplianceCheck) bool {
	if len(f.Marketplaces) > 0 {
		found := false
		for _, m := range f.Marketplaces {
			if m == c.MarketplaceCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinScore != nil && c.ViolationScore < *f.MinScore {
		return false
	}
	if f.RiskLevel != "" && c.RiskLevel() != f.RiskLevel {
		return false
	}
	return true
}

// StatsFilter scopes aggregate statistics.
type StatsFilter struct {
	Marketplace string
	Since       time.Time
}

// ViolationTypeCount is one row of the top violation types table.
type ViolationTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats aggregates recorded checks. High is 61-100, medium 31-60, low 1-30,
// clear exactly 0.
type Stats struct {
	TotalChecks       int                  `json:"total_checks"`
	TotalProducts     int                  `json:"total_products"`
	TotalViolations   int                  `json:"total_violations"`
	HighRiskCount     int                  `json:"high_risk_count"`
	MediumRiskCount   int                  `json:"medium_risk_count"`
	LowRiskCount      int                  `json:"low_risk_count"`
	ClearCount        int                  `json:"clear_count"`
	AvgViolationScore float64              `json:"avg_violation_score"`
	TopViolationTypes []ViolationTypeCount `json:"top_violation_types"`
}

// TopViolationTypesLimit caps the TopViolationTypes table.
const TopViolationTypesLimit = 5
