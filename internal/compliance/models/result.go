package models

import (
	"time"

	"listingwatch/internal/registry"
)

// CheckResult is the outbound view of a recorded check.
type CheckResult struct {
	CheckID                string          `json:"check_id"`
	ASIN                   string          `json:"asin"`
	URL                    string          `json:"url"`
	Title                  string          `json:"title"`
	SellerID               string          `json:"seller_id,omitempty"`
	SellerName             string          `json:"seller_name"`
	SellerWebsite          string          `json:"seller_website,omitempty"`
	Marketplace            string          `json:"marketplace"`
	ViolationScore         int             `json:"violation_score"`
	RiskLevel              RiskLevel       `json:"risk_level"`
	RecommendedAction      registry.Action `json:"recommended_action"`
	ViolationsDetected     bool            `json:"violations_detected"`
	CEMarkVisible          bool            `json:"ce_mark_visible"`
	CECertificationClaimed bool            `json:"ce_certification_claimed"`
	IsBabyProduct          bool            `json:"is_baby_product"`
	ProductAgeRange        string          `json:"product_age_range,omitempty"`
	FulfilledBy            string          `json:"fulfilled_by"`
	ConfidenceScore        int             `json:"confidence_score"`
	ImagesAnalyzed         int             `json:"images_analyzed"`
	ViolationTypes         []string        `json:"violation_types"`
	Issues                 []string        `json:"issues"`
	Violations             []Violation     `json:"violation_details"`
	Breakdown              ScoreBreakdown  `json:"violation_score_breakdown"`
	Summary                string          `json:"summary"`
	Reasoning              string          `json:"reasoning,omitempty"`
	LearningIDs            []string        `json:"learning_ids,omitempty"`
	CheckedAt              time.Time       `json:"checked_at"`
}

// NewCheckResult builds the outbound view from a recorded check. It reads
// only the check's own snapshot fields.
func NewCheckResult(c *ComplianceCheck) *CheckResult {
	r := &CheckResult{
		CheckID:                c.CheckID,
		ASIN:                   c.ProductASIN,
		URL:                    c.ProductURL,
		Title:                  c.ProductTitle,
		SellerName:             c.SellerName,
		SellerWebsite:          c.SellerWebsite,
		Marketplace:            c.MarketplaceCode,
		ViolationScore:         c.ViolationScore,
		RiskLevel:              c.RiskLevel(),
		RecommendedAction:      c.RecommendedAction,
		ViolationsDetected:     len(c.Violations) > 0,
		CEMarkVisible:          c.CEMarkVisible,
		CECertificationClaimed: c.CECertificationClaimed,
		IsBabyProduct:          c.IsBabyProduct,
		ProductAgeRange:        c.ProductAgeRange,
		FulfilledBy:            c.FulfilledBy,
		ConfidenceScore:        c.ConfidenceScore,
		ImagesAnalyzed:         c.ImagesAnalyzed,
		ViolationTypes:         make([]string, 0, len(c.Violations)),
		Issues:                 make([]string, 0, len(c.Violations)),
		Violations:             append([]Violation{}, c.Violations...),
		Breakdown:              c.Breakdown,
		Summary:                c.Summary,
		Reasoning:              c.Reasoning,
		LearningIDs:            append([]string(nil), c.LearningIDs...),
		CheckedAt:              c.CheckedAt,
	}
	if c.SellerID != nil {
		r.SellerID = *c.SellerID
	}
	if r.SellerName == "" {
		r.SellerName = "Unknown"
	}
	for _, v := range c.Violations {
		r.ViolationTypes = append(r.ViolationTypes, v.Type)
		if v.Explanation != "" {
			r.Issues = append(r.Issues, v.Explanation)
		}
	}
	return r
}
