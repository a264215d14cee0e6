package capture

import (
	"context"

	"github.com/rpggio/nexus/internal/domain/project"
)

// ParsedNote is the structured reading of a short free-text note.
type ParsedNote struct {
	Candidate project.Candidate
	// ChangeSummary is an optional one-line description of the update.
	ChangeSummary string
}

// NoteParser extracts a single candidate update from a note. knownNames
// lets the parser line the note up with existing project names.
type NoteParser interface {
	ParseNote(ctx context.Context, text string, knownNames []string) (*ParsedNote, error)
}
