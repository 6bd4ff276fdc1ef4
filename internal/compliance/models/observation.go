package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"listingwatch/internal/registry"
	dErrors "listingwatch/pkg/domain-errors"
)

const (
	maxASINLength    = 32
	maxTextLength    = 4000
	defaultFulfilled = "Unknown"
)

// Occurrence is one detected violation as reported by listing acquisition.
// ScoreOverride, when set, replaces the violation type's base score.
type Occurrence struct {
	TypeCode               string
	Explanation            string
	ScoreOverride          *int
	EvidenceText           string
	EvidenceTextTranslated string
	Location               string
	RegulatoryReference    string
}

// Observation is the inbound shape for one listing check.
type Observation struct {
	CheckID                string
	ASIN                   string
	URL                    string
	Title                  string
	SellerID               string
	SellerName             string
	SellerWebsite          string
	MarketplaceCode        string
	FulfilledBy            string
	CEMarkVisible          bool
	CECertificationClaimed bool
	IsBabyProduct          bool
	ProductAgeRange        string
	ConfidenceScore        int
	ImagesAnalyzed         int
	Summary                string
	Reasoning              string
	Violations             []Occurrence
}

// Normalize trims free text, canonicalizes codes and fills defaults.
// A seller given only by name gets an id derived from the lowercased name.
func (o *Observation) Normalize() {
	o.CheckID = strings.TrimSpace(o.CheckID)
	o.ASIN = strings.ToUpper(strings.TrimSpace(o.ASIN))
	o.URL = strings.TrimSpace(o.URL)
	o.Title = strings.TrimSpace(o.Title)
	o.SellerID = strings.TrimSpace(o.SellerID)
	o.SellerName = strings.TrimSpace(o.SellerName)
	o.SellerWebsite = strings.TrimSpace(o.SellerWebsite)
	o.MarketplaceCode = registry.NormalizeMarketplaceCode(o.MarketplaceCode)
	o.FulfilledBy = strings.TrimSpace(o.FulfilledBy)
	if o.FulfilledBy == "" {
		o.FulfilledBy = defaultFulfilled
	}
	o.ProductAgeRange = strings.TrimSpace(o.ProductAgeRange)
	o.Summary = strings.TrimSpace(o.Summary)
	o.Reasoning = strings.TrimSpace(o.Reasoning)
	if o.SellerID == "" && o.SellerName != "" {
		o.SellerID = "name:" + strings.ToLower(o.SellerName)
	}
	// Always a fresh, non-nil slice: the caller's occurrences stay untouched and
	// nil and empty lists fingerprint the same.
	violations := make([]Occurrence, len(o.Violations))
	copy(violations, o.Violations)
	o.Violations = violations
	for i := range o.Violations {
		v := &o.Violations[i]
		v.TypeCode = strings.ToLower(strings.TrimSpace(v.TypeCode))
		v.Explanation = strings.TrimSpace(v.Explanation)
		v.EvidenceText = strings.TrimSpace(v.EvidenceText)
		v.EvidenceTextTranslated = strings.TrimSpace(v.EvidenceTextTranslated)
		v.Location = strings.TrimSpace(v.Location)
		v.RegulatoryReference = strings.TrimSpace(v.RegulatoryReference)
	}
}

// Validate checks structural constraints. Reference data (marketplace,
// violation types) and score overrides are resolved later by the service and
// the scoring engine.
func (o *Observation) Validate() error {
	if o.ASIN == "" {
		return dErrors.New(dErrors.CodeValidation, "asin is required")
	}
	if len(o.ASIN) > maxASINLength {
		return dErrors.New(dErrors.CodeValidation, "asin must be 32 characters or less")
	}
	if o.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "url is required")
	}
	if o.MarketplaceCode == "" {
		return dErrors.New(dErrors.CodeValidation, "marketplace is required")
	}
	if o.ConfidenceScore < 0 || o.ConfidenceScore > 100 {
		return dErrors.New(dErrors.CodeValidation, "confidence_score must be between 0 and 100")
	}
	if o.ImagesAnalyzed < 0 {
		return dErrors.New(dErrors.CodeValidation, "images_analyzed cannot be negative")
	}
	if utf8.RuneCountInString(o.Summary) > maxTextLength || utf8.RuneCountInString(o.Reasoning) > maxTextLength {
		return dErrors.New(dErrors.CodeValidation, "summary and reasoning must be 4000 characters or less")
	}
	for _, v := range o.Violations {
		if v.TypeCode == "" {
			return dErrors.New(dErrors.CodeValidation, "violation type is required")
		}
	}
	return nil
}

// HasSeller reports whether the observation identifies a seller.
func (o *Observation) HasSeller() bool {
	return o.SellerID != ""
}

// Fingerprint hashes the normalized payload, excluding CheckID. Two
// submissions with the same fingerprint describe the same check.
func (o *Observation) Fingerprint() string {
	payload := *o
	payload.CheckID = ""
	// Struct field order makes the JSON encoding canonical.
	raw, err := json.Marshal(payload)
	if err != nil {
		// Observation holds only strings, ints, bools and slices thereof.
		panic("models: fingerprint marshal: " + err.Error())
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
