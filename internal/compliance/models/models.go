// Package models defines the compliance graph: products, sellers, checks,
// violations, complaint packs, keywords and learnings.
//
// Nodes reference each other by natural key (asin, seller id, check id,
// marketplace code) rather than by pointer so the same types serve the
// in-memory arena and the relational store.
package models

import (
	"errors"
	"time"

	"listingwatch/internal/registry"
)

// ErrConstraintViolation reports a natural key collision with a conflicting
// payload.
var ErrConstraintViolation = errors.New("constraint violation")

// Product is a marketplace listing identified by ASIN.
//
// Invariants:
//   - ASIN is the identity and never changes
//   - URL is unique across products
//   - CurrentRiskScore equals the score of the check with the latest CheckedAt
type Product struct {
	ASIN             string    `json:"asin"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	FulfilledBy      string    `json:"fulfilled_by"`
	CurrentRiskScore int       `json:"current_risk_score"`
	LastCheckedAt    time.Time `json:"last_checked_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Seller is created on first observation; later observations refresh Name and
// Website but never the SellerID.
type Seller struct {
	SellerID  string    `json:"seller_id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation is one detected occurrence. Severity is copied from the
// violation type when the check is recorded and is never re-read from the
// registry, so later type edits do not rewrite history.
type Violation struct {
	ViolationID            string            `json:"violation_id"`
	CheckID                string            `json:"check_id"`
	Type                   string            `json:"type"`
	Severity               registry.Severity `json:"severity"`
	Points                 int               `json:"points"`
	Explanation            string            `json:"explanation"`
	EvidenceText           string            `json:"evidence_text,omitempty"`
	EvidenceTextTranslated string            `json:"evidence_text_translated,omitempty"`
	Location               string            `json:"location,omitempty"`
	RegulatoryReference    string            `json:"regulatory_reference,omitempty"`
}

// ScoreBreakdown explains how a check's score was reached.
type ScoreBreakdown struct {
	RawTotal          int                       `json:"raw_total"`
	Saturated         bool                      `json:"saturated"`
	SeverityBreakdown map[registry.Severity]int `json:"severity_breakdown"`
	Calculation       string                    `json:"calculation"`
}

// ComplianceCheck is an immutable, append-only record of one scoring run.
// Product and seller display fields are snapshots taken at recording time.
type ComplianceCheck struct {
	CheckID                string          `json:"check_id"`
	Fingerprint            string          `json:"fingerprint"`
	State                  CheckState      `json:"state"`
	CheckedAt              time.Time       `json:"checked_at"`
	ProductASIN            string          `json:"asin"`
	ProductURL             string          `json:"url"`
	ProductTitle           string          `json:"title"`
	SellerID               *string         `json:"seller_id,omitempty"`
	SellerName             string          `json:"seller_name,omitempty"`
	SellerWebsite          string          `json:"seller_website,omitempty"`
	MarketplaceCode        string          `json:"marketplace"`
	ViolationScore         int             `json:"violation_score"`
	RecommendedAction      registry.Action `json:"recommended_action"`
	Breakdown              ScoreBreakdown  `json:"breakdown"`
	Summary                string          `json:"summary"`
	Reasoning              string          `json:"reasoning,omitempty"`
	CEMarkVisible          bool            `json:"ce_mark_visible"`
	CECertificationClaimed bool            `json:"ce_certification_claimed"`
	IsBabyProduct          bool            `json:"is_baby_product"`
	ProductAgeRange        string          `json:"product_age_range,omitempty"`
	FulfilledBy            string          `json:"fulfilled_by"`
	ConfidenceScore        int             `json:"confidence_score"`
	ImagesAnalyzed         int             `json:"images_analyzed"`
	Violations             []Violation     `json:"violations"`
	LearningIDs            []string        `json:"learning_ids,omitempty"`
}

// RiskLevel returns the display risk bucket for the check's score.
func (c *ComplianceCheck) RiskLevel() RiskLevel {
	return RiskLevelFor(c.ViolationScore)
}

// ComplaintPack bundles evidence for checks whose action requires escalation.
// There is at most one pack per check.
type ComplaintPack struct {
	ComplaintID     string          `json:"complaint_id"`
	CheckID         string          `json:"check_id"`
	ProductASIN     string          `json:"asin"`
	SellerID        *string         `json:"seller_id,omitempty"`
	MarketplaceCode string          `json:"marketplace"`
	Action          registry.Action `json:"action"`
	ViolationScore  int             `json:"violation_score"`
	Evidence        []Violation     `json:"evidence"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Keyword is a saved search identified by (normalized text, marketplace).
// SearchCount only ever grows.
type Keyword struct {
	KeywordID       string    `json:"keyword_id"`
	Text            string    `json:"text"`
	MarketplaceCode string    `json:"marketplace"`
	CreatedAt       time.Time `json:"created_at"`
	LastSearched    time.Time `json:"last_searched"`
	SearchCount     int       `json:"search_count"`
}

// Learning is a human-curated note that can be attached to checks.
type Learning struct {
	LearningID string    `json:"learning_id"`
	Text       string    `json:"text"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}
