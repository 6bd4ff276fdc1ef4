package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"listingwatch/internal/compliance/models"
	"listingwatch/internal/registry"
)

type ScoringSuite struct {
	suite.Suite
	reg *registry.Registry
}

func TestScoringSuite(t *testing.T) {
	suite.Run(t, new(ScoringSuite))
}

func (s *ScoringSuite) SetupSuite() {
	s.reg = registry.MustDefault()
}

func occ(codes ...string) []models.Occurrence {
	out := make([]models.Occurrence, len(codes))
	for i, c := range codes {
		out[i] = models.Occurrence{TypeCode: c}
	}
	return out
}

func intPtr(v int) *int { return &v }

func (s *ScoringSuite) TestScenarios() {
	cases := []struct {
		name  string
		codes []string
		want  int
	}{
		{"zero violations", nil, 0},
		{"single critical", []string{"age_claim_without_ce"}, 35},
		{"two criticals", []string{"age_claim_without_ce", "misleading_safety"}, 70},
		{"three others", []string{"other", "other", "other"}, 30},
		{"four others", []string{"other", "other", "other", "other"}, 40},
		{"saturates", []string{"misleading_safety", "misleading_safety", "misleading_safety"}, 100},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res, err := Score(occ(tc.codes...), s.reg)
			s.Require().NoError(err)
			s.Equal(tc.want, res.Score)
			s.Len(res.Contributions, len(tc.codes))
		})
	}
}

func (s *ScoringSuite) TestBreakdown() {
	s.Run("saturated sum keeps raw total", func() {
		res, err := Score(occ("misleading_safety", "misleading_safety", "misleading_safety"), s.reg)
		s.Require().NoError(err)
		s.Equal(105, res.Breakdown.RawTotal)
		s.True(res.Breakdown.Saturated)
		s.Equal(3, res.Breakdown.SeverityBreakdown[registry.SeverityCritical])
		s.Equal(0, res.Breakdown.SeverityBreakdown[registry.SeverityLow])
		s.Equal("35 + 35 + 35 = 105 (capped at 100)", res.Breakdown.Calculation)
	})

	s.Run("empty list", func() {
		res, err := Score(nil, s.reg)
		s.Require().NoError(err)
		s.False(res.Breakdown.Saturated)
		s.Equal("no violations = 0", res.Breakdown.Calculation)
	})
}

func (s *ScoringSuite) TestOverrides() {
	s.Run("override replaces base score", func() {
		list := occ("age_claim_without_ce", "other")
		list[0].ScoreOverride = intPtr(5)
		res, err := Score(list, s.reg)
		s.Require().NoError(err)
		s.Equal(15, res.Score)
		s.True(res.Contributions[0].Overridden)
		s.False(res.Contributions[1].Overridden)
	})

	s.Run("zero override is allowed", func() {
		list := occ("misleading_safety")
		list[0].ScoreOverride = intPtr(0)
		res, err := Score(list, s.reg)
		s.Require().NoError(err)
		s.Equal(0, res.Score)
	})

	s.Run("negative override rejected", func() {
		list := occ("other")
		list[0].ScoreOverride = intPtr(-1)
		_, err := Score(list, s.reg)
		s.ErrorIs(err, ErrInvalidScoreOverride)
	})

	s.Run("huge overrides do not wrap", func() {
		list := occ("other", "other")
		list[0].ScoreOverride = intPtr(math.MaxInt)
		list[1].ScoreOverride = intPtr(math.MaxInt)
		res, err := Score(list, s.reg)
		s.Require().NoError(err)
		s.Equal(100, res.Score)
		s.Equal(math.MaxInt, res.Breakdown.RawTotal)
	})
}

func (s *ScoringSuite) TestUnknownType() {
	_, err := Score(occ("other", "not_a_type"), s.reg)
	s.Require().Error(err)
	s.True(errors.Is(err, registry.ErrUnknownViolationType))
}

func TestScoreBoundedAndMonotonic(t *testing.T) {
	reg := registry.MustDefault()
	codes := []string{"age_claim_without_ce", "undocumented_certification", "misleading_safety", "other"}

	var list []models.Occurrence
	prev := 0
	// Walk a deterministic sequence long enough to pass saturation.
	for i := 0; i < 24; i++ {
		list = append(list, models.Occurrence{TypeCode: codes[(i*7)%len(codes)]})
		res, err := Score(list, reg)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, prev, "adding violation %d decreased the score", i)
		assert.GreaterOrEqual(t, res.Score, registry.MinScore)
		assert.LessOrEqual(t, res.Score, registry.MaxScore)
		prev = res.Score
	}
	assert.Equal(t, registry.MaxScore, prev)
}

func TestScoreIsDeterministic(t *testing.T) {
	reg := registry.MustDefault()
	list := occ("other", "misleading_safety", "undocumented_certification")
	first, err := Score(list, reg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Score(list, reg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
