package handler

import (
	"net/url"
	"strconv"
	"strings"

	"listingwatch/internal/compliance/models"
	dErrors "listingwatch/pkg/domain-errors"
)

const maxBatchSize = 100

// ViolationRequest is one detected occurrence in a check submission.
// severity_override is the acquisition service's name for score_override;
// score_override wins when both are sent.
type ViolationRequest struct {
	Type                   string `json:"type"`
	Explanation            string `json:"explanation"`
	ScoreOverride          *int   `json:"score_override,omitempty"`
	SeverityOverride       *int   `json:"severity_override,omitempty"`
	EvidenceText           string `json:"evidence_text,omitempty"`
	EvidenceTextTranslated string `json:"evidence_text_translated,omitempty"`
	Location               string `json:"location,omitempty"`
	RegulatoryReference    string `json:"regulatory_reference,omitempty"`
}

func (v ViolationRequest) override() *int {
	if v.ScoreOverride != nil {
		return v.ScoreOverride
	}
	return v.SeverityOverride
}

// RecordCheckRequest is the body of POST /compliance/results.
type RecordCheckRequest struct {
	CheckID                string             `json:"check_id,omitempty"`
	ASIN                   string             `json:"asin"`
	URL                    string             `json:"url"`
	Title                  string             `json:"title"`
	SellerID               string             `json:"seller_id,omitempty"`
	SellerName             string             `json:"seller_name,omitempty"`
	SellerWebsite          string             `json:"seller_website,omitempty"`
	Marketplace            string             `json:"marketplace"`
	FulfilledBy            string             `json:"fulfilled_by,omitempty"`
	CEMarkVisible          bool               `json:"ce_mark_visible"`
	CECertificationClaimed bool               `json:"ce_certification_claimed"`
	IsBabyProduct          bool               `json:"is_baby_product"`
	ProductAgeRange        string             `json:"product_age_range,omitempty"`
	ConfidenceScore        int                `json:"confidence_score"`
	ImagesAnalyzed         int                `json:"images_analyzed"`
	Summary                string             `json:"summary"`
	Reasoning              string             `json:"reasoning,omitempty"`
	Violations             []ViolationRequest `json:"violations"`
}

// Observation converts the request into the service input.
func (r *RecordCheckRequest) Observation() models.Observation {
	obs := models.Observation{
		CheckID:                r.CheckID,
		ASIN:                   r.ASIN,
		URL:                    r.URL,
		Title:                  r.Title,
		SellerID:               r.SellerID,
		SellerName:             r.SellerName,
		SellerWebsite:          r.SellerWebsite,
		MarketplaceCode:        r.Marketplace,
		FulfilledBy:            r.FulfilledBy,
		CEMarkVisible:          r.CEMarkVisible,
		CECertificationClaimed: r.CECertificationClaimed,
		IsBabyProduct:          r.IsBabyProduct,
		ProductAgeRange:        r.ProductAgeRange,
		ConfidenceScore:        r.ConfidenceScore,
		ImagesAnalyzed:         r.ImagesAnalyzed,
		Summary:                r.Summary,
		Reasoning:              r.Reasoning,
		Violations:             make([]models.Occurrence, 0, len(r.Violations)),
	}
	for _, v := range r.Violations {
		obs.Violations = append(obs.Violations, models.Occurrence{
			TypeCode:               v.Type,
			Explanation:            v.Explanation,
			ScoreOverride:          v.override(),
			EvidenceText:           v.EvidenceText,
			EvidenceTextTranslated: v.EvidenceTextTranslated,
			Location:               v.Location,
			RegulatoryReference:    v.RegulatoryReference,
		})
	}
	return obs
}

// RecordBatchRequest is the body of POST /compliance/results/batch.
type RecordBatchRequest struct {
	Checks []RecordCheckRequest `json:"checks"`
}

func (r *RecordBatchRequest) Validate() error {
	if len(r.Checks) == 0 {
		return dErrors.New(dErrors.CodeValidation, "checks must not be empty")
	}
	if len(r.Checks) > maxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "at most 100 checks per batch")
	}
	return nil
}

// TouchKeywordRequest is the body of POST /compliance/keywords.
type TouchKeywordRequest struct {
	Keyword     string `json:"keyword"`
	Marketplace string `json:"marketplace"`
}

// CreateLearningRequest is the body of POST /compliance/learnings.
type CreateLearningRequest struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// parseResultFilter reads list filters from the query string. marketplace
// may repeat or hold a comma-separated list.
func parseResultFilter(q url.Values) (models.ResultFilter, error) {
	var f models.ResultFilter
	for _, raw := range q["marketplace"] {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				f.Marketplaces = append(f.Marketplaces, m)
			}
		}
	}
	f.RiskLevel = models.RiskLevel(strings.ToLower(strings.TrimSpace(q.Get("risk_level"))))

	if raw := q.Get("min_score"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeValidation, "min_score must be an integer")
		}
		f.MinScore = &n
	}
	var err error
	if f.Limit, err = queryInt(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// queryInt returns 0 for an absent parameter.
func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, key+" must be an integer")
	}
	return n, nil
}
