package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/merge"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/state"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultCallDelay is the pause between extraction calls.
const DefaultCallDelay = 3 * time.Second

// Options configures an Orchestrator.
type Options struct {
	// Concurrency bounds in-flight extraction calls. Values below 1 mean 1.
	Concurrency int
	// CallDelay is the minimum spacing between extraction calls. Zero
	// disables pacing.
	CallDelay time.Duration
}

// Orchestrator drives documents through extraction and merge.
type Orchestrator struct {
	extractor Extractor
	engine    *merge.Engine
	opts      Options
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(extractor Extractor, engine *merge.Engine, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Orchestrator{extractor: extractor, engine: engine, opts: opts, logger: logger}
}

// Ingest extracts every document from src and merges the results into doc.
func (o *Orchestrator) Ingest(ctx context.Context, src documents.Source, doc *state.Document) (*Report, error) {
	batch, err := o.Extract(ctx, src)
	if err != nil {
		return nil, err
	}
	return o.Merge(ctx, doc, batch), nil
}

// Extract lists src and runs extraction for each document through a bounded
// queue. A failing document is recorded and skipped; only a listing failure
// aborts the batch.
func (o *Orchestrator) Extract(ctx context.Context, src documents.Source) (*Batch, error) {
	metas, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var limiter *rate.Limiter
	if o.opts.CallDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(o.opts.CallDelay), 1)
	}

	type result struct {
		candidates []project.Candidate
		err        error
	}
	results := make([]result, len(metas))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, meta := range metas {
		g.Go(func() error {
			cands, err := o.extractOne(ctx, src, meta, limiter)
			results[i] = result{candidates: cands, err: err}
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{}
	for i, meta := range metas {
		r := results[i]
		if r.err != nil {
			if o.logger != nil {
				o.logger.Warn("skipping document", "document", meta.Name, "error", r.err)
			}
			batch.Failures = append(batch.Failures, Failure{Document: meta.Name, Message: r.err.Error(), Err: r.err})
			continue
		}
		batch.Extractions = append(batch.Extractions, Extraction{Document: meta, Candidates: r.candidates})
	}

	if o.logger != nil {
		o.logger.Info("extraction finished", "documents", len(metas), "extracted", batch.Processed(), "failed", len(batch.Failures))
	}
	return batch, nil
}

func (o *Orchestrator) extractOne(ctx context.Context, src documents.Source, meta documents.Meta, limiter *rate.Limiter) (cands []project.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands, err = nil, fmt.Errorf("%w: panic: %v", ErrExtraction, r)
		}
	}()

	text, err := src.Read(ctx, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for extraction slot: %w", err)
		}
	}

	raw, err := o.extractor.Extract(ctx, text, meta.Name)
	if err != nil {
		return nil, err
	}

	cands = make([]project.Candidate, 0, len(raw))
	for _, c := range raw {
		c = project.Normalize(c)
		if c.Name == "" {
			continue
		}
		if c.SourceFile == "" {
			c.SourceFile = meta.Name
		}
		cands = append(cands, c)
	}
	if o.logger != nil {
		o.logger.Debug("document extracted", "document", meta.Name, "candidates", len(cands))
	}
	return cands, nil
}

// Merge upserts every extracted candidate into doc, one at a time in
// document order.
func (o *Orchestrator) Merge(ctx context.Context, doc *state.Document, batch *Batch) *Report {
	report := &Report{
		Projects:  []*project.Project{},
		Conflicts: []conflict.Alert{},
		Failures:  append([]Failure{}, batch.Failures...),
		Processed: batch.Processed(),
		created:   make(map[string]bool),
	}
	index := make(map[string]int)

	for _, ext := range batch.Extractions {
		method := ext.Document.CaptureMethod()
		for _, c := range ext.Candidates {
			out, err := o.engine.Upsert(ctx, doc, c, method)
			if err != nil {
				if o.logger != nil {
					o.logger.Warn("skipping candidate", "document", ext.Document.Name, "candidate", c.Name, "error", err)
				}
				report.Failures = append(report.Failures, Failure{
					Document: ext.Document.Name,
					Message:  fmt.Sprintf("merging %q: %v", c.Name, err),
					Err:      err,
				})
				continue
			}

			if out.Created {
				report.created[out.Project.ID] = true
				report.Created++
			} else {
				report.Updated++
			}
			report.Conflicts = append(report.Conflicts, out.Conflicts...)
			if i, ok := index[out.Project.ID]; ok {
				report.Projects[i] = out.Project
			} else {
				index[out.Project.ID] = len(report.Projects)
				report.Projects = append(report.Projects, out.Project)
			}
		}
	}
	return report
}
