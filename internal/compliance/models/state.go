package models

import (
	dErrors "listingwatch/pkg/domain-errors"
)

// CheckState tracks a check through recording. Recorded is terminal.
type CheckState string

const (
	CheckStatePending  CheckState = "pending"
	CheckStateScored   CheckState = "scored"
	CheckStateRecorded CheckState = "recorded"
)

// CanTransitionTo reports whether the state machine allows s -> next.
// Only Pending -> Scored -> Recorded is permitted.
func (s CheckState) CanTransitionTo(next CheckState) bool {
	switch s {
	case CheckStatePending:
		return next == CheckStateScored
	case CheckStateScored:
		return next == CheckStateRecorded
	default:
		return false
	}
}

// Advance moves the check to next or fails with an invariant violation.
func (c *ComplianceCheck) Advance(next CheckState) error {
	if !c.State.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvariantViolation, "check cannot move from "+string(c.State)+" to "+string(next))
	}
	c.State = next
	return nil
}
