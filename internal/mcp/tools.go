package mcp

import (
	"context"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
)

type toolHandlers struct {
	services Services
	inbox    string
}

func registerTools(server *sdkmcp.Server, cfg Config) {
	h := &toolHandlers{services: cfg.Services, inbox: cfg.Inbox}

	// Ingestion
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ingest_documents",
		Description: "Extract projects from inbox documents and merge them into the portfolio, detecting conflicts with recent history",
	}, h.ingestDocuments)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ingest_email",
		Description: "Ingest a plain text email body as a one-document batch",
	}, h.ingestEmail)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "quick_update",
		Description: "Apply a one-line note or voice transcript to a single project",
	}, h.quickUpdate)

	// Reads
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects ordered by CEO priority, then stakeholder urgency",
	}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project with its full history by id or name",
	}, h.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_projects",
		Description: "Full-text search over project names, descriptions, notes and risks",
	}, h.searchProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_conflicts",
		Description: "List conflict alerts, newest first",
	}, h.listConflicts)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "quality_score",
		Description: "Get the 0-100 data quality score of the portfolio",
	}, h.qualityScore)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "Get recent ingestion and capture activity",
	}, h.getRecentActivity)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ping",
		Description: "Check that the server is alive",
	}, h.ping)
}

func (h *toolHandlers) ingestDocuments(ctx context.Context, _ *sdkmcp.CallToolRequest, in IngestDocumentsParams) (*sdkmcp.CallToolResult, IngestOutput, error) {
	if h.inbox == "" {
		return nil, IngestOutput{}, &APIError{Code: "INVALID_INPUT", Message: "no inbox directory configured"}
	}
	if h.services.Ingest == nil {
		return nil, IngestOutput{}, errModelUnavailable
	}
	report, err := h.services.Ingest.Run(ctx, documents.NewDir(h.inbox).Only(in.Files...))
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}
	return nil, ingestOutput(report), nil
}

func (h *toolHandlers) ingestEmail(ctx context.Context, _ *sdkmcp.CallToolRequest, in IngestEmailParams) (*sdkmcp.CallToolResult, IngestOutput, error) {
	if h.services.Ingest == nil {
		return nil, IngestOutput{}, errModelUnavailable
	}
	report, err := h.services.Ingest.RunEmail(ctx, in.Subject, in.Body)
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}
	return nil, ingestOutput(report), nil
}

func (h *toolHandlers) quickUpdate(ctx context.Context, _ *sdkmcp.CallToolRequest, in QuickUpdateParams) (*sdkmcp.CallToolResult, QuickUpdateOutput, error) {
	if h.services.Capture == nil {
		return nil, QuickUpdateOutput{}, errModelUnavailable
	}
	method := project.MethodQuickCapture
	if m := strings.TrimSpace(in.Method); m != "" {
		method = project.CaptureMethod(m)
	}
	result, err := h.services.Capture.Capture(ctx, in.Text, method)
	if err != nil {
		return nil, QuickUpdateOutput{}, toolError(err)
	}
	return nil, quickUpdateOutput(result), nil
}

func (h *toolHandlers) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListProjectsParams) (*sdkmcp.CallToolResult, ListProjectsOutput, error) {
	summaries, err := h.services.Projects.List(ctx, project.ListOptions{
		Statuses:    in.Statuses,
		MinPriority: in.MinPriority,
		Limit:       in.Limit,
		Offset:      in.Offset,
	})
	if err != nil {
		return nil, ListProjectsOutput{}, toolError(err)
	}
	return nil, ListProjectsOutput{Projects: nonNil(summaries)}, nil
}

func (h *toolHandlers) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectParams) (*sdkmcp.CallToolResult, ProjectOutput, error) {
	p, err := h.services.Projects.Get(ctx, in.Ref)
	if err != nil {
		return nil, ProjectOutput{}, toolError(err)
	}
	return nil, ProjectOutput{Project: projectView(p)}, nil
}

func (h *toolHandlers) searchProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchProjectsParams) (*sdkmcp.CallToolResult, SearchProjectsOutput, error) {
	results, err := h.services.Projects.Search(ctx, in.Query, project.SearchOptions{
		Statuses: in.Statuses,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, SearchProjectsOutput{}, toolError(err)
	}
	return nil, SearchProjectsOutput{Results: nonNil(results)}, nil
}

func (h *toolHandlers) listConflicts(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListConflictsParams) (*sdkmcp.CallToolResult, ListConflictsOutput, error) {
	alerts, err := h.services.Conflicts.ListConflicts(ctx, conflict.ListOptions{
		ProjectID:      in.ProjectID,
		UnresolvedOnly: in.UnresolvedOnly,
		Limit:          in.Limit,
	})
	if err != nil {
		return nil, ListConflictsOutput{}, toolError(err)
	}
	return nil, ListConflictsOutput{Conflicts: nonNil(alerts)}, nil
}

func (h *toolHandlers) qualityScore(ctx context.Context, _ *sdkmcp.CallToolRequest, in QualityScoreParams) (*sdkmcp.CallToolResult, QualityScoreOutput, error) {
	score := h.services.Quality.Score
	if in.Refresh {
		score = h.services.Quality.Refresh
	}
	s, err := score(ctx)
	if err != nil {
		return nil, QualityScoreOutput{}, toolError(err)
	}
	return nil, QualityScoreOutput{Score: s}, nil
}

func (h *toolHandlers) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, ActivityOutput, error) {
	opts := activity.ListActivityOptions{ProjectID: in.ProjectID, Limit: in.Limit, Offset: in.Offset}
	if in.Type != "" {
		t := activity.ActivityType(in.Type)
		opts.ActivityType = &t
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	entries, err := h.services.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, ActivityOutput{}, toolError(err)
	}
	return nil, ActivityOutput{Entries: nonNil(entries)}, nil
}

func (h *toolHandlers) ping(_ context.Context, _ *sdkmcp.CallToolRequest, _ PingParams) (*sdkmcp.CallToolResult, PingOutput, error) {
	return nil, PingOutput{Status: "ok", Time: time.Now().UTC()}, nil
}
