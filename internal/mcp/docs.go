package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `nexus keeps a CEO portfolio of projects current from unstructured documents.

Core concepts:
- Project: a tracked initiative with CEO priority (0-10), stakeholder urgency (0-10), stakeholder sentiment (calm < concerned < frustrated < furious) and status.
- History: append-only audit trail on every project. Entries are never rewritten.
- Conflict alert: raised when an update contradicts a change made in the last 2 hours (priority_shift, urgency_spike, sentiment_change).
- Quality score: 0-100 health of the portfolio data.

Typical workflow:
1) Orient: list_projects, list_conflicts(unresolved_only=true), quality_score.
2) Ingest: ingest_documents for inbox files, ingest_email for a pasted email.
3) Capture: quick_update for one-line notes ("Phoenix is now top priority").
4) Inspect: get_project for full history, get_recent_activity for what changed.

Docs:
- nexus://docs/index
- nexus://docs/merge-rules
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "nexus://docs/index",
		Name:        "docs_index",
		Title:       "nexus docs index",
		Description: "Entry point: tools and what they change.",
		Content: `# nexus: Agent Docs Index

## Tools

- ` + "`ingest_documents`" + ` reads text and markdown files from the inbox. Each file is extracted independently; a file that fails is reported in ` + "`failures`" + ` and the rest of the batch still merges.
- ` + "`ingest_email`" + ` ingests a plain email body labelled "<subject>.txt".
- ` + "`quick_update`" + ` applies one note to one project. Methods: quick-capture, voice, email.
- ` + "`list_projects`" + `, ` + "`get_project`" + `, ` + "`search_projects`" + ` read the portfolio.
- ` + "`list_conflicts`" + ` lists alerts newest first.
- ` + "`quality_score`" + ` reports the data quality score; ` + "`refresh=true`" + ` stores a recomputed value.
- ` + "`get_recent_activity`" + ` lists batches, failures, created and updated projects.

## Errors

Tool errors carry a code: PROJECT_NOT_FOUND, INVALID_INPUT, INVALID_DOCUMENT, STORE_LOCKED, DOCUMENT_NOT_FOUND, UNSUPPORTED_DOCUMENT, EXTRACTION_FAILED, MODEL_UNAVAILABLE, SEARCH_UNAVAILABLE.
`,
	},
	{
		URI:         "nexus://docs/merge-rules",
		Name:        "docs_merge_rules",
		Title:       "Merge and conflict rules",
		Description: "How updates are matched to projects and when conflicts are raised.",
		Content: `# Merge and conflict rules

## Matching

An update matches the first project whose name contains the update's name, case-insensitively. Otherwise a new project is created. Names and ids are never overwritten.

## Guarantees

- Scores are clamped to 0-10.
- A furious stakeholder always has urgency 8 or more.
- Every update appends exactly one history entry.

## Conflicts

Only the last 5 history entries that fall within the previous 2 hours are considered.

- priority_shift: priority decreases while a recent entry mentions an increase.
- urgency_spike: urgency rises by more than 3.
- sentiment_change: sentiment gets worse.

Each alert carries a one-sentence analysis, or "No conflict detected." when none is available. Alerts are never resolved automatically.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
