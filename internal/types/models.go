package types

import "time"

// TimeLayout is how time range bounds are rendered in prompts and snapshots.
const TimeLayout = "2006-01-02 15:04"

type ModelDescriptor struct {
	InternalID   string `json:"name"`
	DisplayLabel string `json:"displayName"`
}

// IsZero reports whether no model has been resolved.
func (m ModelDescriptor) IsZero() bool { return m.InternalID == "" }

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set.
func (r TimeRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// FormatStart renders the start bound, or "N/A" when unset.
func (r TimeRange) FormatStart() string { return formatBound(r.Start) }

// FormatEnd renders the end bound, or "N/A" when unset.
func (r TimeRange) FormatEnd() string { return formatBound(r.End) }

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(TimeLayout)
}

type AnalysisConfig struct {
	BaseInstructions string `json:"base_instructions"`
	UserQuery        string `json:"user_query"`
	Language         string `json:"language"`
}
