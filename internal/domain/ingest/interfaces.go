package ingest

import (
	"context"

	"github.com/rpggio/nexus/internal/domain/project"
)

// Extractor turns document text into candidate project updates. Malformed
// model output is reported as an error wrapping ErrExtraction.
type Extractor interface {
	Extract(ctx context.Context, text, label string) ([]project.Candidate, error)
}
