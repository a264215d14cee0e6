package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeBatchCompleted   ActivityType = "batch_completed"
	TypeDocumentFailed   ActivityType = "document_failed"
	TypeProjectCreated   ActivityType = "project_created"
	TypeProjectUpdated   ActivityType = "project_updated"
	TypeConflictDetected ActivityType = "conflict_detected"
	TypeQuickCapture     ActivityType = "quick_capture"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    *string      `json:"project_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
