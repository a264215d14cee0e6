package conflict

import (
	"context"

	"github.com/rpggio/nexus/internal/domain/project"
)

// NoConflictRationale is the explanation used when the explainer sees no
// contradiction or cannot be reached.
const NoConflictRationale = "No conflict detected."

// ExplainRequest is the context handed to an Explainer.
type ExplainRequest struct {
	Type      Type
	Existing  *project.Project
	Candidate project.Candidate
	Recent    []project.HistoryEntry
}

// Explainer produces a one-sentence rationale for a detected conflict.
type Explainer interface {
	Explain(ctx context.Context, req ExplainRequest) (string, error)
}
