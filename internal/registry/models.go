package registry

// Severity grades a violation type. Ordered LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid checks if the severity is one of the supported enum values.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Severities lists every severity, least severe first.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Action is a recommended remediation band.
type Action string

const (
	ActionClear         Action = "CLEAR"
	ActionMonitor       Action = "MONITOR"
	ActionReview        Action = "REVIEW"
	ActionComplaintPack Action = "COMPLAINT_PACK"
	ActionUrgentReport  Action = "URGENT_REPORT"
)

// actionRank orders actions by ascending severity.
var actionRank = map[Action]int{
	ActionClear:         0,
	ActionMonitor:       1,
	ActionReview:        2,
	ActionComplaintPack: 3,
	ActionUrgentReport:  4,
}

// IsValid checks if the action is one of the five supported bands.
func (a Action) IsValid() bool {
	_, ok := actionRank[a]
	return ok
}

// Rank returns the position of the action in ascending severity order, or -1.
func (a Action) Rank() int {
	if r, ok := actionRank[a]; ok {
		return r
	}
	return -1
}

// RequiresComplaintPack reports whether checks resolved to this action must
// produce a ComplaintPack.
func (a Action) RequiresComplaintPack() bool {
	return a == ActionComplaintPack || a == ActionUrgentReport
}

// Marketplace is immutable reference data for a storefront.
type Marketplace struct {
	Code     string `json:"code" yaml:"code"`
	Name     string `json:"name" yaml:"name"`
	Country  string `json:"country" yaml:"country"`
	Currency string `json:"currency" yaml:"currency"`
	Domain   string `json:"domain" yaml:"domain"`
}

// ViolationType is immutable reference data describing a class of issue and
// the points it contributes to a check's score.
type ViolationType struct {
	Code         string   `json:"code" yaml:"code"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	BaseSeverity Severity `json:"base_severity" yaml:"base_severity"`
	BaseScore    int      `json:"base_score" yaml:"base_score"`
}

// ActionThreshold maps an inclusive score range onto an action.
type ActionThreshold struct {
	Action      Action `json:"action" yaml:"action"`
	MinScore    int    `json:"min_score" yaml:"min_score"`
	MaxScore    int    `json:"max_score" yaml:"max_score"`
	Description string `json:"description" yaml:"description"`
}

// Contains reports whether score falls inside the inclusive range.
func (t ActionThreshold) Contains(score int) bool {
	return score >= t.MinScore && score <= t.MaxScore
}

// Seed is the full reference data set a Registry is built from.
type Seed struct {
	Marketplaces     []Marketplace     `yaml:"marketplaces"`
	ViolationTypes   []ViolationType   `yaml:"violation_types"`
	ActionThresholds []ActionThreshold `yaml:"action_thresholds"`
}
