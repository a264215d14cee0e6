package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rpggio/nexus/internal/config"
	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/merge"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/domain/quality"
	"github.com/rpggio/nexus/internal/filestore"
	"github.com/rpggio/nexus/internal/llm"
	"github.com/rpggio/nexus/internal/mcp"
	"github.com/rpggio/nexus/internal/sqlite"
	"github.com/rpggio/nexus/internal/state"
)

// app holds the wired services for one command invocation.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	store    *state.Store
	projects *project.Service
	quality  *quality.Service
	activity *activity.Service
	// ingest and capture are nil when no language model is configured.
	ingest  *ingest.Service
	capture *capture.Handler

	closers []io.Closer
}

// newApp loads config and wires storage and services. A nil console logs to
// stderr, or stdout in HTTP mode; stdio mode keeps stdout for JSON-RPC.
// requireModel makes a missing API key fatal; otherwise model-backed
// services are left nil.
func newApp(console io.Writer, requireModel bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if console == nil {
		console = os.Stderr
		if cfg.Transport.Mode == "http" {
			console = os.Stdout
		}
	}

	logger, logCloser, err := newLogger(cfg.Log, console)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	st, err := a.openStorage()
	if err != nil {
		a.Close()
		return nil, err
	}
	if st.activity != nil {
		a.activity = activity.NewService(st.activity, logger)
	}

	a.store = state.NewStore(st.documents, state.Options{
		LockPath:    cfg.Store.LockPath,
		LockTimeout: cfg.Store.LockTimeout,
	}, logger)
	a.projects = project.NewService(a.store, nil, st.search, logger)
	a.quality = quality.NewService(a.store, logger)

	client, err := llm.NewClient(llm.Config{
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		MaxTokens:  cfg.LLM.MaxTokens,
		MaxRetries: cfg.LLM.MaxRetries,
		Timeout:    cfg.LLM.Timeout,
	}, logger)
	switch {
	case err == nil:
		a.wireModel(client)
	case errors.Is(err, llm.ErrAPIKeyRequired) && !requireModel:
		logger.Warn("no language model configured; ingestion and capture are disabled", "error", err)
	default:
		a.Close()
		return nil, err
	}
	return a, nil
}

// storage holds the repositories of the configured driver. The JSON driver
// has no activity log or search index.
type storage struct {
	documents state.Repository
	activity  activity.Repository
	search    project.SearchRepository
}

func (a *app) openStorage() (storage, error) {
	path := a.cfg.DB.ResolvedPath()
	if err := ensureDir(path); err != nil {
		return storage{}, fmt.Errorf("prepare database path: %w", err)
	}

	if a.cfg.DB.Driver == config.DriverJSON {
		a.logger.Debug("using JSON state file", "path", path)
		return storage{documents: filestore.New(path)}, nil
	}

	db, err := sqlite.New(path)
	if err != nil {
		return storage{}, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db)
	if err := db.RunMigrations(); err != nil {
		return storage{}, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Debug("using sqlite database", "path", path)
	return storage{
		documents: sqlite.NewDocumentRepository(db),
		activity:  sqlite.NewActivityRepository(db),
		search:    sqlite.NewSearchRepository(db),
	}, nil
}

func (a *app) wireModel(client *llm.Client) {
	detector := conflict.NewDetector(client, a.logger)
	engine := merge.NewEngine(nil, detector, client, merge.Options{
		SkipUnchanged: !a.cfg.Merge.RecordUnchanged,
	}, a.logger)
	orchestrator := ingest.NewOrchestrator(client, engine, ingest.Options{
		Concurrency: a.cfg.Ingest.Concurrency,
		CallDelay:   a.cfg.Ingest.CallDelay,
	}, a.logger)
	a.ingest = ingest.NewService(orchestrator, a.store, a.activity, a.logger)
	a.capture = capture.NewHandler(client, engine, a.store, a.activity, a.logger)
}

// mcpServices exposes the wired services, leaving model-backed entries nil
// interfaces when unavailable.
func (a *app) mcpServices() mcp.Services {
	s := mcp.Services{
		Projects:  a.projects,
		Conflicts: a.store,
		Quality:   a.quality,
		Activity:  a.activity,
	}
	if a.ingest != nil {
		s.Ingest = a.ingest
	}
	if a.capture != nil {
		s.Capture = a.capture
	}
	return s
}

// Close releases storage and the log file, last opened first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close error: %v\n", err)
		}
	}
	a.closers = nil
}
