package project

import (
	"fmt"

	"github.com/google/uuid"
)

// Validate returns the schema issues found on a stored project. An empty
// result means the project is valid.
func Validate(p *Project) []string {
	if p == nil {
		return []string{"project is nil"}
	}

	var issues []string
	if _, err := uuid.Parse(p.ID); err != nil {
		issues = append(issues, fmt.Sprintf("id %q is not a uuid", p.ID))
	}
	if p.Priority < MinScore || p.Priority > MaxScore {
		issues = append(issues, fmt.Sprintf("ceoPriority %d out of range", p.Priority))
	}
	if p.Urgency < MinScore || p.Urgency > MaxScore {
		issues = append(issues, fmt.Sprintf("stakeholderUrgency %d out of range", p.Urgency))
	}
	if !p.Sentiment.Valid() {
		issues = append(issues, fmt.Sprintf("stakeholderSentiment %q is invalid", p.Sentiment))
	}
	if p.Sentiment == SentimentFurious && p.Urgency < FuriousMinUrgency {
		issues = append(issues, fmt.Sprintf("furious sentiment with stakeholderUrgency %d below %d", p.Urgency, FuriousMinUrgency))
	}
	if !p.Status.Valid() {
		issues = append(issues, fmt.Sprintf("status %q is invalid", p.Status))
	}
	if p.Deadline != nil && p.Deadline.IsZero() {
		issues = append(issues, "deadline is a zero timestamp")
	}
	if p.LastUpdated.IsZero() {
		issues = append(issues, "lastUpdated is missing")
	}
	if p.Risks == nil {
		issues = append(issues, "keyRisks is missing")
	}
	if p.Dependencies == nil {
		issues = append(issues, "dependencies is missing")
	}
	if p.History == nil {
		issues = append(issues, "history is missing")
	}
	for i, h := range p.History {
		if h.Timestamp.IsZero() {
			issues = append(issues, fmt.Sprintf("history[%d].timestamp is missing", i))
		}
		if !h.CaptureMethod.Valid() {
			issues = append(issues, fmt.Sprintf("history[%d].captureMethod %q is invalid", i, h.CaptureMethod))
		}
	}
	return issues
}
