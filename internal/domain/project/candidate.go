package project

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Candidate is a partial project update produced by extraction and not yet
// merged. Nil pointers and nil slices mean the field was not mentioned.
type Candidate struct {
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	Priority     *int       `json:"ceoPriority,omitempty"`
	Urgency      *int       `json:"stakeholderUrgency,omitempty"`
	Sentiment    *Sentiment `json:"stakeholderSentiment,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	Risks        []string   `json:"keyRisks,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	SourceFile   string     `json:"sourceFile,omitempty"`
}

// Normalize applies the rules every candidate goes through regardless of its
// source: trimmed name, scores clamped to [0,10], unknown enum values dropped,
// and a furious sentiment forcing urgency to at least 8.
func Normalize(c Candidate) Candidate {
	c.Name = strings.TrimSpace(c.Name)
	if c.Priority != nil {
		c.Priority = intPtr(clampScore(*c.Priority))
	}
	if c.Urgency != nil {
		c.Urgency = intPtr(clampScore(*c.Urgency))
	}
	if c.Sentiment != nil && !c.Sentiment.Valid() {
		c.Sentiment = nil
	}
	if c.Status != nil && !c.Status.Valid() {
		c.Status = nil
	}
	if c.Deadline != nil && c.Deadline.IsZero() {
		c.Deadline = nil
	}
	if c.Sentiment != nil && *c.Sentiment == SentimentFurious && c.Urgency != nil && *c.Urgency < FuriousMinUrgency {
		c.Urgency = intPtr(FuriousMinUrgency)
	}
	return c
}

// NormalizeAgainst normalizes c and then resolves the furious-urgency rule
// against the record it will be applied to (nil for a new record), so the
// merged result can never be furious with urgency below 8.
func NormalizeAgainst(c Candidate, existing *Project) Candidate {
	c = Normalize(c)

	sentiment := SentimentCalm
	urgency := DefaultUrgency
	if existing != nil {
		sentiment = existing.Sentiment
		urgency = existing.Urgency
	}
	if c.Sentiment != nil {
		sentiment = *c.Sentiment
	}
	if c.Urgency != nil {
		urgency = *c.Urgency
	}
	if sentiment == SentimentFurious && urgency < FuriousMinUrgency {
		c.Urgency = intPtr(FuriousMinUrgency)
	}
	return c
}

// Change describes a tracked field that an update modifies.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
	// Delta is positive for escalation, negative for de-escalation.
	Delta int `json:"delta"`
}

func (c Change) String() string {
	switch {
	case c.Delta > 0:
		return fmt.Sprintf("%s increased from %s to %s", c.Field, c.From, c.To)
	case c.Delta < 0:
		return fmt.Sprintf("%s decreased from %s to %s", c.Field, c.From, c.To)
	default:
		return fmt.Sprintf("%s changed from %s to %s", c.Field, c.From, c.To)
	}
}

// TrackedChanges lists the priority, urgency, sentiment and status changes c
// would make to p.
func (c Candidate) TrackedChanges(p *Project) []Change {
	var changes []Change
	if c.Priority != nil && *c.Priority != p.Priority {
		changes = append(changes, Change{
			Field: "priority",
			From:  strconv.Itoa(p.Priority),
			To:    strconv.Itoa(*c.Priority),
			Delta: *c.Priority - p.Priority,
		})
	}
	if c.Urgency != nil && *c.Urgency != p.Urgency {
		changes = append(changes, Change{
			Field: "urgency",
			From:  strconv.Itoa(p.Urgency),
			To:    strconv.Itoa(*c.Urgency),
			Delta: *c.Urgency - p.Urgency,
		})
	}
	if c.Sentiment != nil && *c.Sentiment != p.Sentiment {
		changes = append(changes, Change{
			Field: "sentiment",
			From:  string(p.Sentiment),
			To:    string(*c.Sentiment),
			Delta: c.Sentiment.Rank() - p.Sentiment.Rank(),
		})
	}
	if c.Status != nil && *c.Status != p.Status {
		changes = append(changes, Change{
			Field: "status",
			From:  string(p.Status),
			To:    string(*c.Status),
		})
	}
	return changes
}

// DescribeChanges joins change descriptions into one audit sentence.
func DescribeChanges(changes []Change) string {
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, ch.String())
	}
	s := strings.Join(parts, "; ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func intPtr(v int) *int {
	return &v
}

// ApplyTo overwrites every field of p that c carries. Identity fields (id and
// name) and history are left alone.
func (c Candidate) ApplyTo(p *Project) {
	c.ApplyTrackedTo(p)
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Deadline != nil {
		d := *c.Deadline
		p.Deadline = &d
	}
	if c.Notes != nil {
		p.Notes = *c.Notes
	}
	if c.Risks != nil {
		p.Risks = slices.Clone(c.Risks)
	}
	if c.Dependencies != nil {
		p.Dependencies = slices.Clone(c.Dependencies)
	}
}

// ApplyTrackedTo overwrites only priority, urgency, sentiment and status.
func (c Candidate) ApplyTrackedTo(p *Project) {
	if c.Priority != nil {
		p.Priority = *c.Priority
	}
	if c.Urgency != nil {
		p.Urgency = *c.Urgency
	}
	if c.Sentiment != nil {
		p.Sentiment = *c.Sentiment
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
}
