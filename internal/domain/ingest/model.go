package ingest

import (
	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
)

// Extraction holds the candidates extracted from one document.
type Extraction struct {
	Document   documents.Meta
	Candidates []project.Candidate
}

// Failure records a document skipped by a batch.
type Failure struct {
	Document string `json:"document"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

func (f Failure) Error() string {
	return f.Document + ": " + f.Message
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Batch is the result of the extraction phase, in document order.
type Batch struct {
	Extractions []Extraction
	Failures    []Failure
}

// Processed returns the number of documents extracted successfully.
func (b *Batch) Processed() int {
	return len(b.Extractions)
}

// Report summarizes an ingestion batch.
type Report struct {
	// Projects are the touched records, one per id, in first-touch order
	// with the last written value.
	Projects     []*project.Project `json:"projects"`
	Created      int                `json:"created"`
	Updated      int                `json:"updated"`
	Conflicts    []conflict.Alert   `json:"conflicts"`
	Failures     []Failure          `json:"failures"`
	Processed    int                `json:"processed"`
	QualityScore int                `json:"qualityScore,omitempty"`

	created map[string]bool
}

// WasCreated reports whether the batch created the project with this id.
func (r *Report) WasCreated(id string) bool {
	return r.created[id]
}
