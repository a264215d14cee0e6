package merge

import (
	"context"

	"github.com/rpggio/nexus/internal/domain/project"
)

// Summarizer turns a list of tracked-field changes into one audit sentence.
type Summarizer interface {
	Summarize(ctx context.Context, existing *project.Project, changes []project.Change) (string, error)
}
