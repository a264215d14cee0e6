package merge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/state"
)

const (
	// CreatedChange is the history entry written for records created by ingestion.
	CreatedChange = "Project created from initial ingestion"
	// UnchangedChange is the history entry written when no tracked field moved.
	UnchangedChange = "No significant changes detected"
)

// Options configures an Engine.
type Options struct {
	// SkipUnchanged suppresses the history entry for updates that change no
	// tracked field. The default records it.
	SkipUnchanged bool
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Outcome describes the effect of one upsert.
type Outcome struct {
	Project   *project.Project
	Created   bool
	Conflicts []conflict.Alert
	Changes   []project.Change
}

// Engine reconciles candidates against a document.
type Engine struct {
	resolver   project.Resolver
	detector   *conflict.Detector
	summarizer Summarizer
	opts       Options
	logger     *slog.Logger
}

// NewEngine creates a merge engine. A nil resolver matches by substring; a
// nil detector disables conflict detection; a nil summarizer describes
// changes deterministically.
func NewEngine(resolver project.Resolver, detector *conflict.Detector, summarizer Summarizer, opts Options, logger *slog.Logger) *Engine {
	if resolver == nil {
		resolver = project.SubstringResolver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{
		resolver:   resolver,
		detector:   detector,
		summarizer: summarizer,
		opts:       opts,
		logger:     logger,
	}
}

// Now returns the engine clock's current time in UTC.
func (e *Engine) Now() time.Time {
	return e.opts.Now().UTC()
}

// Resolve finds the existing project a candidate name refers to.
func (e *Engine) Resolve(doc *state.Document, name string) *project.Project {
	return e.resolver.Resolve(name, doc.Projects)
}

// Detect runs conflict detection for an update to existing.
func (e *Engine) Detect(ctx context.Context, existing *project.Project, c project.Candidate) []conflict.Alert {
	if e.detector == nil {
		return nil
	}
	return e.detector.DetectAt(ctx, existing, c, e.Now())
}

// NewProject builds a record from a normalized candidate with defaults for
// every omitted field and a single history entry.
func (e *Engine) NewProject(c project.Candidate, method project.CaptureMethod, change string) *project.Project {
	now := e.Now()
	p := &project.Project{
		ID:           e.opts.NewID(),
		Name:         c.Name,
		Priority:     project.DefaultPriority,
		Urgency:      project.DefaultUrgency,
		Sentiment:    project.SentimentCalm,
		Status:       project.StatusActive,
		Risks:        []string{},
		Dependencies: []string{},
		History:      []project.HistoryEntry{},
		SourceFile:   c.SourceFile,
		LastUpdated:  now,
	}
	c.ApplyTo(p)
	p.AppendHistory(project.HistoryEntry{Timestamp: now, Change: change, CaptureMethod: method})
	return p
}

// Upsert creates or updates the project the candidate names and writes the
// result into doc, together with any conflicts it raised.
func (e *Engine) Upsert(ctx context.Context, doc *state.Document, c project.Candidate, method project.CaptureMethod) (*Outcome, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, project.ErrMissingName
	}
	if !method.Valid() {
		return nil, project.ErrInvalidInput
	}

	existing := e.Resolve(doc, strings.TrimSpace(c.Name))
	c = project.NormalizeAgainst(c, existing)

	if existing == nil {
		p := e.NewProject(c, method, CreatedChange)
		doc.PutProject(p)
		if e.logger != nil {
			e.logger.Debug("project created", "project", p.Name, "id", p.ID, "method", method)
		}
		return &Outcome{Project: p, Created: true}, nil
	}

	alerts := e.Detect(ctx, existing, c)
	changes := c.TrackedChanges(existing)

	updated := existing.Clone()
	c.ApplyTo(updated)
	now := e.Now()
	if c.SourceFile != "" {
		updated.SourceFile = c.SourceFile
	}
	updated.LastUpdated = now

	if len(changes) > 0 || !e.opts.SkipUnchanged {
		updated.AppendHistory(project.HistoryEntry{
			Timestamp:     now,
			Change:        e.describe(ctx, existing, changes),
			CaptureMethod: method,
		})
	}

	doc.PutProject(updated)
	doc.AddConflicts(alerts...)

	if e.logger != nil {
		e.logger.Debug("project updated", "project", updated.Name, "id", updated.ID, "changes", len(changes), "conflicts", len(alerts))
	}
	return &Outcome{Project: updated, Conflicts: alerts, Changes: changes}, nil
}

func (e *Engine) describe(ctx context.Context, existing *project.Project, changes []project.Change) string {
	if len(changes) == 0 {
		return UnchangedChange
	}
	if e.summarizer != nil {
		summary, err := e.summarizer.Summarize(ctx, existing, changes)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
		if err != nil && e.logger != nil {
			e.logger.Warn("change summary failed", "project", existing.Name, "error", err)
		}
	}
	return project.DescribeChanges(changes)
}
