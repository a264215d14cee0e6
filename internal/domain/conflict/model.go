package conflict

import "time"

// Type classifies a contradiction between an update and recent history.
type Type string

const (
	TypePriorityShift   Type = "priority_shift"
	TypeUrgencySpike    Type = "urgency_spike"
	TypeStatusReversal  Type = "status_reversal"
	TypeSentimentChange Type = "sentiment_change"
)

// Valid reports whether t is a known conflict type.
func (t Type) Valid() bool {
	switch t {
	case TypePriorityShift, TypeUrgencySpike, TypeStatusReversal, TypeSentimentChange:
		return true
	}
	return false
}

// Alert describes a conflict detected during an update.
type Alert struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	ProjectName   string    `json:"projectName"`
	Timestamp     time.Time `json:"timestamp"`
	ConflictType  Type      `json:"conflictType"`
	PreviousValue string    `json:"previousValue"`
	NewValue      string    `json:"newValue"`
	Analysis      string    `json:"aiAnalysis"`
	Resolved      bool      `json:"resolved"`
}

// ListOptions provides filtering options for listing alerts.
type ListOptions struct {
	ProjectID      string
	UnresolvedOnly bool
	Limit          int
}
