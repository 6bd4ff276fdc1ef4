package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"listingwatch/internal/compliance/handler/mocks"
	"listingwatch/internal/compliance/models"
	"listingwatch/internal/compliance/service"
	"listingwatch/internal/platform/logger"
	"listingwatch/internal/registry"
	dErrors "listingwatch/pkg/domain-errors"
	"listingwatch/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mocks.go -package=mocks Service
type ComplianceHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestComplianceHandlerSuite(t *testing.T) {
	suite.Run(t, new(ComplianceHandlerSuite))
}

func (s *ComplianceHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, logger.Discard(), nil).Register(s.router)
}

func sampleResult(checkID string, score int) *models.CheckResult {
	return &models.CheckResult{
		CheckID:           checkID,
		ASIN:              "B0TEST0001",
		Marketplace:       "de",
		ViolationScore:    score,
		RiskLevel:         models.RiskLevelFor(score),
		RecommendedAction: registry.ActionReview,
		CheckedAt:         time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (s *ComplianceHandlerSuite) TestRecordCheck() {
	body := RecordCheckRequest{
		CheckID:     "chk-1",
		ASIN:        "B0TEST0001",
		URL:         "https://www.amazon.de/dp/B0TEST0001",
		Marketplace: "de",
		Violations:  []ViolationRequest{{Type: "age_claim_without_ce", Explanation: "0+ months without CE", Location: "title"}},
	}

	s.Run("new check returns 201", func() {
		s.service.EXPECT().RecordCheck(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, obs models.Observation) (*models.CheckResult, bool, error) {
				s.Equal("chk-1", obs.CheckID)
				s.Equal("de", obs.MarketplaceCode)
				s.Require().Len(obs.Violations, 1)
				s.Equal("age_claim_without_ce", obs.Violations[0].TypeCode)
				s.Equal("title", obs.Violations[0].Location)
				return sampleResult("chk-1", 35), false, nil
			})

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results", body))
		s.Equal(http.StatusCreated, rr.Code)
		resp := testutil.Decode[RecordCheckResponse](s.T(), rr)
		s.False(resp.Replayed)
		s.Equal(35, resp.Result.ViolationScore)
		s.NotEmpty(rr.Header().Get("X-Request-ID"))
	})

	s.Run("replay returns 200", func() {
		s.service.EXPECT().RecordCheck(gomock.Any(), gomock.Any()).Return(sampleResult("chk-1", 35), true, nil)

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results", body))
		s.Equal(http.StatusOK, rr.Code)
		s.True(testutil.Decode[RecordCheckResponse](s.T(), rr).Replayed)
	})

	s.Run("conflicting payload returns 409 with message", func() {
		s.service.EXPECT().RecordCheck(gomock.Any(), gomock.Any()).Return(nil, false,
			dErrors.Wrap(models.ErrConstraintViolation, dErrors.CodeConflict, "a check with this id already exists with different results"))

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results", body))
		s.Equal(http.StatusConflict, rr.Code)
		resp := testutil.Decode[map[string]string](s.T(), rr)
		s.Equal("conflict", resp["error"])
		s.Equal("a check with this id already exists with different results", resp["error_description"])
	})

	s.Run("unknown violation type returns 400", func() {
		s.service.EXPECT().RecordCheck(gomock.Any(), gomock.Any()).Return(nil, false,
			dErrors.Wrap(registry.ErrUnknownViolationType, dErrors.CodeValidation, "unknown violation type"))

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results", body))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("internal error hides description", func() {
		s.service.EXPECT().RecordCheck(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("pq: connection refused"))

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results", body))
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "pq:")
	})

	s.Run("malformed body never reaches the service", func() {
		rr := testutil.Serve(s.router, testutil.NewRawRequest(http.MethodPost, "/compliance/results", `{"asin":`))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown field rejected", func() {
		rr := testutil.Serve(s.router, testutil.NewRawRequest(http.MethodPost, "/compliance/results", `{"asin":"B0","priority":"HIGH"}`))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("severity_override is accepted as the score override", func() {
		var got models.Observation
		s.service.EXPECT().RecordCheck(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, obs models.Observation) (*models.CheckResult, bool, error) {
				got = obs
				return sampleResult("chk-override", 32), false, nil
			})

		raw := `{"asin":"B0OVR","url":"https://a","marketplace":"de","violations":[` +
			`{"type":"other","explanation":"x","severity_override":20},` +
			`{"type":"other","explanation":"y","score_override":5,"severity_override":40},` +
			`{"type":"other","explanation":"z"}]}`
		rr := testutil.Serve(s.router, testutil.NewRawRequest(http.MethodPost, "/compliance/results", raw))
		s.Require().Equal(http.StatusCreated, rr.Code)
		s.Require().Len(got.Violations, 3)
		s.Require().NotNil(got.Violations[0].ScoreOverride)
		s.Equal(20, *got.Violations[0].ScoreOverride)
		s.Require().NotNil(got.Violations[1].ScoreOverride)
		s.Equal(5, *got.Violations[1].ScoreOverride)
		s.Nil(got.Violations[2].ScoreOverride)
	})
}

func (s *ComplianceHandlerSuite) TestRecordBatch() {
	s.Run("mixed outcomes keep request order", func() {
		s.service.EXPECT().RecordBatch(gomock.Any(), gomock.Len(2)).Return([]service.BatchItem{
			{Result: sampleResult("chk-a", 10)},
			{Err: dErrors.Wrap(registry.ErrUnknownMarketplace, dErrors.CodeValidation, "unknown marketplace")},
		})

		body := RecordBatchRequest{Checks: []RecordCheckRequest{
			{ASIN: "B0A", URL: "https://a", Marketplace: "de"},
			{ASIN: "B0B", URL: "https://b", Marketplace: "us"},
		}}
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results/batch", body))
		s.Equal(http.StatusOK, rr.Code)

		resp := testutil.Decode[RecordBatchResponse](s.T(), rr)
		s.Equal(1, resp.Recorded)
		s.Equal(1, resp.Failed)
		s.Equal("chk-a", resp.Items[0].Result.CheckID)
		s.Equal(1, resp.Items[1].Index)
		s.Equal("validation_error", resp.Items[1].Error)
		s.Equal("unknown marketplace", resp.Items[1].ErrorDescription)
	})

	s.Run("empty batch rejected", func() {
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/results/batch", RecordBatchRequest{}))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *ComplianceHandlerSuite) TestListResults() {
	s.Run("parses filters", func() {
		s.service.EXPECT().ListResults(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, f models.ResultFilter) ([]*models.CheckResult, error) {
				s.Equal([]string{"de", "fr", "uk"}, f.Marketplaces)
				s.Equal(models.RiskLevelHigh, f.RiskLevel)
				s.Require().NotNil(f.MinScore)
				s.Equal(61, *f.MinScore)
				s.Equal(20, f.Limit)
				s.Equal(40, f.Offset)
				return []*models.CheckResult{sampleResult("chk-1", 70)}, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodGet,
			"/compliance/results?marketplace=de,fr&marketplace=uk&risk_level=HIGH&min_score=61&limit=20&offset=40", nil)
		rr := testutil.Serve(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.Decode[ListResultsResponse](s.T(), rr)
		s.Equal(1, resp.Count)
		s.Equal(20, resp.Limit)
	})

	s.Run("non-numeric limit", func() {
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/results?limit=ten", nil))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *ComplianceHandlerSuite) TestGetResult() {
	s.service.EXPECT().GetResult(gomock.Any(), "chk-1").Return(sampleResult("chk-1", 35), nil)
	s.service.EXPECT().GetResult(gomock.Any(), "chk-missing").Return(nil, dErrors.New(dErrors.CodeNotFound, "check not found"))

	rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/results/chk-1", nil))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("medium", testutil.Decode[map[string]any](s.T(), rr)["risk_level"])

	rr = testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/results/chk-missing", nil))
	testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *ComplianceHandlerSuite) TestStats() {
	s.service.EXPECT().Stats(gomock.Any(), "de", 0).Return(&models.Stats{TotalChecks: 4, AvgViolationScore: 27.5}, nil)

	rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/stats?marketplace=de", nil))
	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.Decode[map[string]any](s.T(), rr)
	s.Equal(float64(4), resp["total_checks"])
	s.Equal(float64(30), resp["days"])
}

func (s *ComplianceHandlerSuite) TestKeywords() {
	testutil.Scenario(s.T(), "repeat keyword search", func(t *testing.T) {
		testutil.Given(t, "the keyword was searched once before", func(t *testing.T) {
			s.service.EXPECT().TouchKeyword(gomock.Any(), "baby ear muffs", "de").
				Return(&models.Keyword{KeywordID: "kw-1", Text: "baby ear muffs", MarketplaceCode: "de", SearchCount: 2}, nil)
		})

		testutil.When(t, "the keyword is touched again", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/compliance/keywords",
				TouchKeywordRequest{Keyword: "baby ear muffs", Marketplace: "de"})
			rr := testutil.Serve(s.router, req)

			testutil.Then(t, "the stored count is returned", func(t *testing.T) {
				s.Equal(http.StatusOK, rr.Code)
				s.Equal(float64(2), testutil.Decode[map[string]any](t, rr)["search_count"])
			})
		})
	})

	s.service.EXPECT().ListKeywords(gomock.Any(), "fr").Return([]*models.Keyword{}, nil)
	rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/keywords?marketplace=fr", nil))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ComplianceHandlerSuite) TestLearnings() {
	s.Run("create", func() {
		s.service.EXPECT().CreateLearning(gomock.Any(), "CE photos are cropped", "images").
			Return(&models.Learning{LearningID: "learn-0a1b2c3d", Text: "CE photos are cropped", Category: "images"}, nil)
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/learnings",
			CreateLearningRequest{Text: "CE photos are cropped", Category: "images"}))
		s.Equal(http.StatusCreated, rr.Code)
	})

	s.Run("list", func() {
		s.service.EXPECT().ListLearnings(gomock.Any(), "images", 5).Return([]*models.Learning{}, nil)
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/learnings?category=images&limit=5", nil))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("attach", func() {
		s.service.EXPECT().AttachLearning(gomock.Any(), "chk-1", "learn-0a1b2c3d").Return(nil)
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/compliance/results/chk-1/learnings/learn-0a1b2c3d", nil))
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("delete missing", func() {
		s.service.EXPECT().DeleteLearning(gomock.Any(), "learn-ffffffff").Return(dErrors.New(dErrors.CodeNotFound, "learning not found"))
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/compliance/learnings/learn-ffffffff", nil))
		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *ComplianceHandlerSuite) TestReference() {
	reg := registry.MustDefault()
	s.service.EXPECT().Reference().Return(service.Catalog{
		Marketplaces:     reg.Marketplaces(),
		ViolationTypes:   reg.ViolationTypes(),
		ActionThresholds: reg.Thresholds(),
	})

	rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/compliance/reference", nil))
	s.Equal(http.StatusOK, rr.Code)
	catalog := testutil.Decode[service.Catalog](s.T(), rr)
	s.Len(catalog.ActionThresholds, 5)
}
