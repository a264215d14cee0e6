package state

import (
	"fmt"
	"strings"

	"github.com/rpggio/nexus/internal/domain/project"
)

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(e.Issues, "; "))
}

// Is makes errors.Is(err, ErrInvalidDocument) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Validate checks a document against the schema. It returns nil or a
// *ValidationError.
func Validate(d *Document) error {
	if d == nil {
		return &ValidationError{Issues: []string{"document is nil"}}
	}

	var issues []string
	if d.Version != SchemaVersion {
		issues = append(issues, fmt.Sprintf("unsupported version %q", d.Version))
	}
	if d.Projects == nil {
		issues = append(issues, "projects is missing")
	}
	if d.Conflicts == nil {
		issues = append(issues, "conflicts is missing")
	}
	if d.Metadata.TotalFilesProcessed < 0 {
		issues = append(issues, "metadata.totalFilesProcessed is negative")
	}
	if d.Metadata.QualityScore < 0 || d.Metadata.QualityScore > 100 {
		issues = append(issues, fmt.Sprintf("metadata.qualityScore %d out of range", d.Metadata.QualityScore))
	}

	seen := make(map[string]bool, len(d.Projects))
	for i, p := range d.Projects {
		if p == nil {
			issues = append(issues, fmt.Sprintf("projects[%d] is null", i))
			continue
		}
		if seen[p.ID] {
			issues = append(issues, fmt.Sprintf("projects[%d]: duplicate id %s", i, p.ID))
		}
		seen[p.ID] = true
		for _, issue := range project.Validate(p) {
			issues = append(issues, fmt.Sprintf("projects[%d]: %s", i, issue))
		}
	}

	for i, a := range d.Conflicts {
		if a.ID == "" {
			issues = append(issues, fmt.Sprintf("conflicts[%d]: id is empty", i))
		}
		if a.ProjectID == "" {
			issues = append(issues, fmt.Sprintf("conflicts[%d]: projectId is empty", i))
		}
		if !a.ConflictType.Valid() {
			issues = append(issues, fmt.Sprintf("conflicts[%d]: unknown conflictType %q", i, a.ConflictType))
		}
		if a.Timestamp.IsZero() {
			issues = append(issues, fmt.Sprintf("conflicts[%d]: timestamp is missing", i))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
