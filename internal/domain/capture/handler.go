package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/merge"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/state"
)

// Result is what a capture touched.
type Result struct {
	ProjectsUpdated []string         `json:"projectsUpdated"`
	Conflicts       []conflict.Alert `json:"conflicts"`
	Created         bool             `json:"created"`
}

// Handler applies single-note updates from voice, quick capture and email.
type Handler struct {
	parser   NoteParser
	engine   *merge.Engine
	store    *state.Store
	activity *activity.Service
	logger   *slog.Logger
}

// NewHandler creates a capture handler. activitySvc may be nil.
func NewHandler(parser NoteParser, engine *merge.Engine, store *state.Store, activitySvc *activity.Service, logger *slog.Logger) *Handler {
	return &Handler{parser: parser, engine: engine, store: store, activity: activitySvc, logger: logger}
}

// Capture parses text into one update and applies it, saving before it
// returns.
func (h *Handler) Capture(ctx context.Context, text string, method project.CaptureMethod) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	switch method {
	case project.MethodVoice, project.MethodQuickCapture, project.MethodEmail:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	var names []string
	if err := h.store.View(ctx, func(doc *state.Document) error {
		names = doc.Names()
		return nil
	}); err != nil {
		return nil, err
	}

	note, err := h.parser.ParseNote(ctx, text, names)
	if err != nil {
		return nil, fmt.Errorf("parsing note: %w", err)
	}
	cand := project.Normalize(note.Candidate)
	if cand.Name == "" {
		return nil, project.ErrMissingName
	}

	var (
		result  *Result
		touched *project.Project
	)
	err = h.store.Update(ctx, func(doc *state.Document) error {
		existing := h.engine.Resolve(doc, cand.Name)
		c := project.NormalizeAgainst(cand, existing)

		if existing == nil {
			if c.Description == nil {
				c.Description = &text
			}
			c.Notes = &text
			touched = h.engine.NewProject(c, method, fmt.Sprintf("Created via %s: %s", method, text))
			doc.PutProject(touched)
			result = &Result{ProjectsUpdated: []string{touched.Name}, Conflicts: []conflict.Alert{}, Created: true}
			return nil
		}

		alerts := h.engine.Detect(ctx, existing, c)
		touched = existing.Clone()
		c.ApplyTrackedTo(touched)
		if touched.Notes == "" {
			touched.Notes = text
		} else {
			touched.Notes = text + "\n\n" + touched.Notes
		}
		change := strings.TrimSpace(note.ChangeSummary)
		if change == "" {
			change = fmt.Sprintf("Updated via %s", method)
		}
		now := h.engine.Now()
		touched.AppendHistory(project.HistoryEntry{Timestamp: now, Change: change, CaptureMethod: method})
		touched.LastUpdated = now

		doc.PutProject(touched)
		doc.AddConflicts(alerts...)
		if alerts == nil {
			alerts = []conflict.Alert{}
		}
		result = &Result{ProjectsUpdated: []string{touched.Name}, Conflicts: alerts}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("applying capture: %w", err)
	}

	if h.logger != nil {
		h.logger.Info("capture applied", "project", touched.Name, "method", method, "created", result.Created, "conflicts", len(result.Conflicts))
	}
	if h.activity != nil {
		h.activity.Record(ctx, activity.TypeQuickCapture, touched.ID, touched.History[len(touched.History)-1].Change, map[string]string{"method": string(method)})
		for _, a := range result.Conflicts {
			h.activity.Record(ctx, activity.TypeConflictDetected, a.ProjectID, fmt.Sprintf("%s on %s", a.ConflictType, a.ProjectName), a)
		}
	}
	return result, nil
}
