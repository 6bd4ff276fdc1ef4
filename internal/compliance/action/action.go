// Package action maps a clamped violation score onto its recommended
// action band and display risk level.
package action

import (
	"listingwatch/internal/compliance/models"
	"listingwatch/internal/registry"
)

// ThresholdResolver resolves a score to its action band.
// *registry.Registry satisfies it.
type ThresholdResolver interface {
	ResolveAction(score int) registry.ActionThreshold
}

// Decision is the resolved recommendation for one score.
type Decision struct {
	Score                 int
	Threshold             registry.ActionThreshold
	RiskLevel             models.RiskLevel
	RequiresComplaintPack bool
}

// Action returns the recommended action.
func (d Decision) Action() registry.Action {
	return d.Threshold.Action
}

// Resolve picks the band containing score. The resolver never writes; callers
// create the complaint pack when RequiresComplaintPack is set.
func Resolve(thresholds ThresholdResolver, score int) Decision {
	score = registry.Clamp(score)
	band := thresholds.ResolveAction(score)
	return Decision{
		Score:                 score,
		Threshold:             band,
		RiskLevel:             models.RiskLevelFor(score),
		RequiresComplaintPack: band.Action.RequiresComplaintPack(),
	}
}
