package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/project"
)

// ProjectService defines project reads needed by MCP.
type ProjectService interface {
	List(ctx context.Context, opts project.ListOptions) ([]project.Summary, error)
	Get(ctx context.Context, ref string) (*project.Project, error)
	Search(ctx context.Context, query string, opts project.SearchOptions) ([]project.SearchResult, error)
}

// IngestService runs ingestion batches.
type IngestService interface {
	Run(ctx context.Context, src documents.Source) (*ingest.Report, error)
	RunEmail(ctx context.Context, subject, body string) (*ingest.Report, error)
}

// CaptureService applies single-note updates.
type CaptureService interface {
	Capture(ctx context.Context, text string, method project.CaptureMethod) (*capture.Result, error)
}

// ConflictService lists recorded conflict alerts.
type ConflictService interface {
	ListConflicts(ctx context.Context, opts conflict.ListOptions) ([]conflict.Alert, error)
}

// QualityService reports the portfolio quality score.
type QualityService interface {
	Score(ctx context.Context) (int, error)
	Refresh(ctx context.Context) (int, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects  ProjectService
	Ingest    IngestService
	Capture   CaptureService
	Conflicts ConflictService
	Quality   QualityService
	Activity  ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	// Inbox is the directory ingest_documents reads from.
	Inbox   string
	Version string
	Logger  *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "nexus",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg)

	return server
}
