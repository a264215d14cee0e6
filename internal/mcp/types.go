package mcp

import (
	"slices"
	"time"

	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/project"
)

type IngestDocumentsParams struct {
	Files []string `json:"files,omitempty" jsonschema:"file names in the inbox to ingest; omit to ingest every file"`
}

type IngestEmailParams struct {
	Subject string `json:"subject,omitempty" jsonschema:"email subject, used as the document name"`
	Body    string `json:"body" jsonschema:"plain text email body"`
}

type QuickUpdateParams struct {
	Text   string `json:"text" jsonschema:"short note or voice transcript"`
	Method string `json:"method,omitempty" jsonschema:"quick-capture (default), voice or email"`
}

type ListProjectsParams struct {
	Statuses    []project.Status `json:"statuses,omitempty" jsonschema:"only include these statuses"`
	MinPriority int              `json:"min_priority,omitempty" jsonschema:"only include projects at or above this CEO priority"`
	Limit       int              `json:"limit,omitempty"`
	Offset      int              `json:"offset,omitempty"`
}

type GetProjectParams struct {
	Ref string `json:"ref" jsonschema:"project id or name"`
}

type SearchProjectsParams struct {
	Query    string           `json:"query" jsonschema:"words to match against names, descriptions, notes and risks"`
	Statuses []project.Status `json:"statuses,omitempty" jsonschema:"only include these statuses"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

type ListConflictsParams struct {
	ProjectID      string `json:"project_id,omitempty"`
	UnresolvedOnly bool   `json:"unresolved_only,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

type QualityScoreParams struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"recompute and store the score"`
}

type GetRecentActivityParams struct {
	ProjectID string `json:"project_id,omitempty"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type PingParams struct{}

type IngestOutput struct {
	Projects     []*project.Project `json:"projects"`
	Created      int                `json:"created"`
	Updated      int                `json:"updated"`
	Conflicts    []conflict.Alert   `json:"conflicts"`
	Failures     []ingest.Failure   `json:"failures"`
	Processed    int                `json:"processed"`
	QualityScore int                `json:"qualityScore"`
}

type QuickUpdateOutput struct {
	ProjectsUpdated []string         `json:"projectsUpdated"`
	Conflicts       []conflict.Alert `json:"conflicts"`
	Created         bool             `json:"created"`
}

type ListProjectsOutput struct {
	Projects []project.Summary `json:"projects"`
}

type ProjectOutput struct {
	Project *project.Project `json:"project"`
}

type SearchProjectsOutput struct {
	Results []project.SearchResult `json:"results"`
}

type ListConflictsOutput struct {
	Conflicts []conflict.Alert `json:"conflicts"`
}

type QualityScoreOutput struct {
	Score int `json:"score"`
}

type ActivityOutput struct {
	Entries []activity.ActivityEntry `json:"entries"`
}

type PingOutput struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// Tool output is validated against the inferred schema, so slices must
// encode as arrays rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func projectView(p *project.Project) *project.Project {
	if p == nil {
		return nil
	}
	v := p.Clone()
	v.Risks = nonNil(v.Risks)
	v.Dependencies = nonNil(v.Dependencies)
	v.History = nonNil(v.History)
	return v
}

func ingestOutput(r *ingest.Report) IngestOutput {
	projects := make([]*project.Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		projects = append(projects, projectView(p))
	}
	return IngestOutput{
		Projects:     projects,
		Created:      r.Created,
		Updated:      r.Updated,
		Conflicts:    nonNil(r.Conflicts),
		Failures:     nonNil(r.Failures),
		Processed:    r.Processed,
		QualityScore: r.QualityScore,
	}
}

func quickUpdateOutput(r *capture.Result) QuickUpdateOutput {
	return QuickUpdateOutput{
		ProjectsUpdated: nonNil(slices.Clone(r.ProjectsUpdated)),
		Conflicts:       nonNil(r.Conflicts),
		Created:         r.Created,
	}
}
