package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"listingwatch/internal/registry"
	dErrors "listingwatch/pkg/domain-errors"
)

type ObservationSuite struct {
	suite.Suite
}

func TestObservationSuite(t *testing.T) {
	suite.Run(t, new(ObservationSuite))
}

func (s *ObservationSuite) validObservation() Observation {
	return Observation{
		CheckID:         " chk-1 ",
		ASIN:            " b0abc123 ",
		URL:             " https://www.amazon.de/dp/B0ABC123 ",
		Title:           "Baby Ear Muffs",
		SellerName:      "  Acme GmbH ",
		MarketplaceCode: "DE",
		ConfidenceScore: 80,
		Violations: []Occurrence{
			{TypeCode: " Age_Claim_Without_CE ", Explanation: " claims 0+ months "},
		},
	}
}

func (s *ObservationSuite) TestNormalize() {
	s.Run("trims and canonicalizes", func() {
		o := s.validObservation()
		o.Normalize()

		s.Equal("chk-1", o.CheckID)
		s.Equal("B0ABC123", o.ASIN)
		s.Equal("https://www.amazon.de/dp/B0ABC123", o.URL)
		s.Equal("de", o.MarketplaceCode)
		s.Equal("Unknown", o.FulfilledBy)
		s.Equal("age_claim_without_ce", o.Violations[0].TypeCode)
		s.Equal("claims 0+ months", o.Violations[0].Explanation)
	})

	s.Run("derives seller id from name", func() {
		o := s.validObservation()
		o.Normalize()
		s.True(o.HasSeller())
		s.Equal("name:acme gmbh", o.SellerID)
	})

	s.Run("keeps explicit seller id", func() {
		o := s.validObservation()
		o.SellerID = "A1SELLER"
		o.Normalize()
		s.Equal("A1SELLER", o.SellerID)
	})

	s.Run("no seller", func() {
		o := s.validObservation()
		o.SellerName = ""
		o.Normalize()
		s.False(o.HasSeller())
	})

	s.Run("gb alias", func() {
		o := s.validObservation()
		o.MarketplaceCode = "GB"
		o.Normalize()
		s.Equal("uk", o.MarketplaceCode)
	})

	s.Run("leaves caller occurrences untouched", func() {
		o := s.validObservation()
		shared := o.Violations
		o.Normalize()
		s.Equal(" Age_Claim_Without_CE ", shared[0].TypeCode)
		s.Equal("age_claim_without_ce", o.Violations[0].TypeCode)
	})

	s.Run("nil violations become empty", func() {
		o := s.validObservation()
		o.Violations = nil
		o.Normalize()
		s.NotNil(o.Violations)
		s.Empty(o.Violations)
	})
}

func (s *ObservationSuite) TestValidate() {
	cases := []struct {
		name   string
		mutate func(*Observation)
	}{
		{"missing asin", func(o *Observation) { o.ASIN = "" }},
		{"long asin", func(o *Observation) { o.ASIN = "B0123456789012345678901234567890123" }},
		{"missing url", func(o *Observation) { o.URL = "" }},
		{"missing marketplace", func(o *Observation) { o.MarketplaceCode = "" }},
		{"confidence above range", func(o *Observation) { o.ConfidenceScore = 101 }},
		{"confidence below range", func(o *Observation) { o.ConfidenceScore = -1 }},
		{"negative images", func(o *Observation) { o.ImagesAnalyzed = -2 }},
		{"blank violation type", func(o *Observation) { o.Violations[0].TypeCode = "  " }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			o := s.validObservation()
			tc.mutate(&o)
			o.Normalize()
			err := o.Validate()
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	s.Run("valid", func() {
		o := s.validObservation()
		o.Normalize()
		s.NoError(o.Validate())
	})

	s.Run("text limits count characters not bytes", func() {
		o := s.validObservation()
		o.Summary = strings.Repeat("ä", 4000)
		o.Reasoning = strings.Repeat("é", 4000)
		o.Normalize()
		s.NoError(o.Validate())

		o.Summary += "ü"
		err := o.Validate()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ObservationSuite) TestFingerprint() {
	s.Run("ignores check id", func() {
		a := s.validObservation()
		b := s.validObservation()
		b.CheckID = "chk-other"
		a.Normalize()
		b.Normalize()
		s.Equal(a.Fingerprint(), b.Fingerprint())
	})

	s.Run("insensitive to surrounding whitespace once normalized", func() {
		a := s.validObservation()
		b := s.validObservation()
		b.ASIN = "B0ABC123"
		a.Normalize()
		b.Normalize()
		s.Equal(a.Fingerprint(), b.Fingerprint())
	})

	s.Run("changes with violations", func() {
		a := s.validObservation()
		b := s.validObservation()
		b.Violations = append(b.Violations, Occurrence{TypeCode: "other"})
		a.Normalize()
		b.Normalize()
		s.NotEqual(a.Fingerprint(), b.Fingerprint())
	})

	s.Run("nil and empty violations match", func() {
		a := s.validObservation()
		b := s.validObservation()
		a.Violations = nil
		b.Violations = []Occurrence{}
		a.Normalize()
		b.Normalize()
		s.Equal(a.Fingerprint(), b.Fingerprint())
	})

	s.Run("changes with score override", func() {
		a := s.validObservation()
		b := s.validObservation()
		override := 12
		b.Violations[0].ScoreOverride = &override
		s.NotEqual(a.Fingerprint(), b.Fingerprint())
	})
}

func TestRiskLevelFor(t *testing.T) {
	cases := map[int]RiskLevel{
		0:   RiskLevelLow,
		30:  RiskLevelLow,
		31:  RiskLevelMedium,
		60:  RiskLevelMedium,
		61:  RiskLevelHigh,
		100: RiskLevelHigh,
	}
	for score, want := range cases {
		assert.Equal(t, want, RiskLevelFor(score), "score %d", score)
	}
}

func TestCheckStateMachine(t *testing.T) {
	c := &ComplianceCheck{State: CheckStatePending}

	err := c.Advance(CheckStateRecorded)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	require.NoError(t, c.Advance(CheckStateScored))
	require.NoError(t, c.Advance(CheckStateRecorded))

	for _, next := range []CheckState{CheckStatePending, CheckStateScored, CheckStateRecorded} {
		assert.False(t, c.State.CanTransitionTo(next), "recorded is terminal")
	}
}

func TestNewCheckResult(t *testing.T) {
	seller := "A1SELLER"
	checkedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &ComplianceCheck{
		CheckID:           "chk-1",
		CheckedAt:         checkedAt,
		ProductASIN:       "B0ABC123",
		ProductURL:        "https://www.amazon.de/dp/B0ABC123",
		ProductTitle:      "Baby Ear Muffs",
		SellerID:          &seller,
		MarketplaceCode:   "de",
		ViolationScore:    70,
		RecommendedAction: registry.ActionComplaintPack,
		FulfilledBy:       "FBA",
		Violations: []Violation{
			{ViolationID: "chk-1-v0", Type: "age_claim_without_ce", Explanation: "claims 0+"},
			{ViolationID: "chk-1-v1", Type: "misleading_safety"},
		},
	}

	r := NewCheckResult(c)

	assert.Equal(t, "A1SELLER", r.SellerID)
	assert.Equal(t, "Unknown", r.SellerName)
	assert.Equal(t, RiskLevelHigh, r.RiskLevel)
	assert.True(t, r.ViolationsDetected)
	assert.Equal(t, []string{"age_claim_without_ce", "misleading_safety"}, r.ViolationTypes)
	assert.Equal(t, []string{"claims 0+"}, r.Issues)
	assert.Equal(t, checkedAt, r.CheckedAt)

	r.Violations[0].Explanation = "mutated"
	assert.Equal(t, "claims 0+", c.Violations[0].Explanation, "result must not alias the check")
}

func TestResultFilter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := ResultFilter{Marketplaces: []string{"GB"}}
		f.Normalize()
		require.NoError(t, f.Validate())
		assert.Equal(t, DefaultListLimit, f.Limit)
		assert.Equal(t, []string{"uk"}, f.Marketplaces)
	})

	t.Run("normalize copies marketplaces", func(t *testing.T) {
		codes := []string{"DE", "GB"}
		f := ResultFilter{Marketplaces: codes}
		f.Normalize()
		assert.Equal(t, []string{"de", "uk"}, f.Marketplaces)
		assert.Equal(t, []string{"DE", "GB"}, codes)
	})

	t.Run("rejects out of range", func(t *testing.T) {
		tooHigh := 101
		for _, f := range []ResultFilter{
			{Limit: 201},
			{Limit: -1},
			{Limit: 10, Offset: -1},
			{Limit: 10, MinScore: &tooHigh},
			{Limit: 10, RiskLevel: "extreme"},
		} {
			err := f.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	t.Run("matches", func(t *testing.T) {
		minScore := 31
		f := ResultFilter{Marketplaces: []string{"de"}, MinScore: &minScore, RiskLevel: RiskLevelMedium}
		assert.True(t, f.Matches(&ComplianceCheck{MarketplaceCode: "de", ViolationScore: 40}))
		assert.False(t, f.Matches(&ComplianceCheck{MarketplaceCode: "fr", ViolationScore: 40}))
		assert.False(t, f.Matches(&ComplianceCheck{MarketplaceCode: "de", ViolationScore: 30}))
		assert.False(t, f.Matches(&ComplianceCheck{MarketplaceCode: "de", ViolationScore: 70}))
	})
}
