package diff

import "ripple/internal/spec"

// ChangeKind represents the type of API change
type ChangeKind string

const (
	EndpointAdded            ChangeKind = "ENDPOINT_ADDED"
	EndpointRemoved          ChangeKind = "ENDPOINT_REMOVED"
	ParamRemoved             ChangeKind = "PARAM_REMOVED"
	ParamAdded               ChangeKind = "PARAM_ADDED"
	ParamNowRequired         ChangeKind = "PARAM_NOW_REQUIRED"
	ParamTypeChanged         ChangeKind = "PARAM_TYPE_CHANGED"
	BodyFieldRemoved         ChangeKind = "BODY_FIELD_REMOVED"
	BodyFieldNowRequired     ChangeKind = "BODY_FIELD_NOW_REQUIRED"
	BodyFieldTypeChanged     ChangeKind = "BODY_FIELD_TYPE_CHANGED"
	ResponseFieldRemoved     ChangeKind = "RESPONSE_FIELD_REMOVED"
	ResponseFieldAdded       ChangeKind = "RESPONSE_FIELD_ADDED"
	ResponseFieldTypeChanged ChangeKind = "RESPONSE_FIELD_TYPE_CHANGED"
	ResponseRemoved          ChangeKind = "RESPONSE_REMOVED"
	ReducedConfidence        ChangeKind = "REDUCED_CONFIDENCE"
	EndpointLimitExceeded    ChangeKind = "ENDPOINT_LIMIT_EXCEEDED"
)

// Severity indicates how breaking a change is
type Severity string

const (
	// SeverityBreaking will cause a correctly-written existing caller to fail
	SeverityBreaking Severity = "breaking"
	// SeverityWarning may cause issues for some callers
	SeverityWarning Severity = "warning"
	// SeverityInfo is a safe, purely additive change
	SeverityInfo Severity = "info"
)

// Rank returns the severity as a comparable number; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityBreaking:
		return 2
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 0
	default:
		return -1
	}
}

// Change represents one detected difference between two spec versions.
// Changes are immutable value records; nothing mutates them after the
// engine emits them.
type Change struct {
	Identity    spec.EndpointIdentity `json:"identity"`
	Kind        ChangeKind            `json:"kind"`
	Locator     string                `json:"locator,omitempty"`
	Severity    Severity              `json:"severity"`
	Description string                `json:"description"`
}

// Summary provides an overview of the changes
type Summary struct {
	TotalChanges    int            `json:"totalChanges"`
	BreakingChanges int            `json:"breakingChanges"`
	Warnings        int            `json:"warnings"`
	Additions       int            `json:"additions"`
	ByKind          map[string]int `json:"byKind,omitempty"`
}

// Summarize calculates summary statistics over a change list.
func Summarize(changes []Change) *Summary {
	summary := &Summary{
		TotalChanges: len(changes),
		ByKind:       make(map[string]int),
	}

	for _, change := range changes {
		summary.ByKind[string(change.Kind)]++

		switch change.Severity {
		case SeverityBreaking:
			summary.BreakingChanges++
		case SeverityWarning:
			summary.Warnings++
		case SeverityInfo:
			summary.Additions++
		}
	}

	return summary
}

// HasBreakingChanges returns true if there are any breaking changes
func (s *Summary) HasBreakingChanges() bool {
	return s != nil && s.BreakingChanges > 0
}

// MaxSeverity returns the maximum severity among the changes; severity never
// degrades by aggregation. Returns SeverityInfo for an empty list.
func MaxSeverity(changes []Change) Severity {
	max := SeverityInfo
	for _, c := range changes {
		if c.Severity.Rank() > max.Rank() {
			max = c.Severity
		}
	}
	return max
}
