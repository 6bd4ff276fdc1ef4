package models

// RiskLevel is a three-bucket display grade, distinct from the five-band
// recommended action.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// IsValid checks if the risk level is one of the supported values.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// RiskLevelFor buckets a score: 0-30 low, 31-60 medium, 61-100 high.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= 61:
		return RiskLevelHigh
	case score >= 31:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
