package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/nexus/internal/domain/project"
)

const (
	// LookBackWindow bounds which history entries count as recent.
	LookBackWindow = 2 * time.Hour
	// HistoryDepth is how many trailing history entries are examined.
	HistoryDepth = 5
	// UrgencySpikeThreshold is the largest urgency increase that is not a spike.
	UrgencySpikeThreshold = 3
)

// Detector classifies contradictions between a project's recent history and
// an incoming update.
type Detector struct {
	explainer Explainer
	logger    *slog.Logger
}

// NewDetector creates a detector. A nil explainer attaches the default
// rationale to every alert.
func NewDetector(explainer Explainer, logger *slog.Logger) *Detector {
	return &Detector{explainer: explainer, logger: logger}
}

// Detect evaluates the candidate against the existing record as of now.
func (d *Detector) Detect(ctx context.Context, existing *project.Project, candidate project.Candidate) []Alert {
	return d.DetectAt(ctx, existing, candidate, time.Now())
}

// DetectAt evaluates the candidate against the existing record as of now.
// The existing record must not yet carry the candidate's changes.
func (d *Detector) DetectAt(ctx context.Context, existing *project.Project, candidate project.Candidate, now time.Time) []Alert {
	if existing == nil {
		return nil
	}
	recent := RecentHistory(existing.History, now)
	if len(recent) == 0 {
		return nil
	}

	var alerts []Alert

	if candidate.Priority != nil && *candidate.Priority < existing.Priority && priorityRecentlyIncreased(recent) {
		alerts = append(alerts, d.newAlert(ctx, existing, candidate, recent, now, TypePriorityShift,
			fmt.Sprintf("%d (increased recently)", existing.Priority),
			fmt.Sprintf("%d (now decreasing)", *candidate.Priority)))
	}

	if candidate.Urgency != nil && *candidate.Urgency > existing.Urgency+UrgencySpikeThreshold {
		alerts = append(alerts, d.newAlert(ctx, existing, candidate, recent, now, TypeUrgencySpike,
			strconv.Itoa(existing.Urgency),
			fmt.Sprintf("%d (+%d)", *candidate.Urgency, *candidate.Urgency-existing.Urgency)))
	}

	if candidate.Sentiment != nil && candidate.Sentiment.Rank() > existing.Sentiment.Rank() {
		alerts = append(alerts, d.newAlert(ctx, existing, candidate, recent, now, TypeSentimentChange,
			string(existing.Sentiment),
			string(*candidate.Sentiment)))
	}

	return alerts
}

// RecentHistory returns the entries among the last HistoryDepth that fall
// inside the look-back window ending at now.
func RecentHistory(history []project.HistoryEntry, now time.Time) []project.HistoryEntry {
	start := max(len(history)-HistoryDepth, 0)
	cutoff := now.Add(-LookBackWindow)

	var recent []project.HistoryEntry
	for _, h := range history[start:] {
		if h.Timestamp.After(cutoff) {
			recent = append(recent, h)
		}
	}
	return recent
}

func priorityRecentlyIncreased(recent []project.HistoryEntry) bool {
	for _, h := range recent {
		change := strings.ToLower(h.Change)
		if strings.Contains(change, "priority") && strings.Contains(change, "increased") {
			return true
		}
	}
	return false
}

func (d *Detector) newAlert(
	ctx context.Context,
	existing *project.Project,
	candidate project.Candidate,
	recent []project.HistoryEntry,
	now time.Time,
	kind Type,
	previous, next string,
) Alert {
	return Alert{
		ID:            uuid.NewString(),
		ProjectID:     existing.ID,
		ProjectName:   existing.Name,
		Timestamp:     now,
		ConflictType:  kind,
		PreviousValue: previous,
		NewValue:      next,
		Analysis:      d.explain(ctx, ExplainRequest{Type: kind, Existing: existing, Candidate: candidate, Recent: recent}),
		Resolved:      false,
	}
}

func (d *Detector) explain(ctx context.Context, req ExplainRequest) string {
	if d.explainer == nil {
		return NoConflictRationale
	}
	text, err := d.explainer.Explain(ctx, req)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("conflict explanation failed", "project", req.Existing.Name, "type", req.Type, "error", err)
		}
		return NoConflictRationale
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return NoConflictRationale
	}
	return text
}
