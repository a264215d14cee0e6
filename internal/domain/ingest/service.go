package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/domain/quality"
	"github.com/rpggio/nexus/internal/state"
)

// Service runs ingestion batches against the store.
type Service struct {
	orchestrator *Orchestrator
	store        *state.Store
	activity     *activity.Service
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates an ingestion service. activitySvc may be nil.
func NewService(orchestrator *Orchestrator, store *state.Store, activitySvc *activity.Service, logger *slog.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		store:        store,
		activity:     activitySvc,
		logger:       logger,
		now:          time.Now,
	}
}

// Run ingests every document in src. Extraction happens before the store is
// locked; merging and metadata updates happen in one unit of work.
func (s *Service) Run(ctx context.Context, src documents.Source) (*Report, error) {
	if src == nil {
		return nil, ErrInvalidInput
	}
	batch, err := s.orchestrator.Extract(ctx, src)
	if err != nil {
		return nil, err
	}

	var report *Report
	err = s.store.Update(ctx, func(doc *state.Document) error {
		report = s.orchestrator.Merge(ctx, doc, batch)

		now := s.now().UTC()
		doc.Metadata.TotalFilesProcessed += batch.Processed()
		doc.Metadata.LastIngestion = &now
		report.QualityScore = quality.Refresh(doc, now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("applying ingestion batch: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("ingestion batch applied",
			"processed", report.Processed,
			"created", report.Created,
			"updated", report.Updated,
			"conflicts", len(report.Conflicts),
			"failed", len(report.Failures),
			"quality", report.QualityScore,
		)
	}
	s.recordActivity(ctx, report)
	return report, nil
}

// RunEmail ingests a plain email body as a one-document batch labelled
// "<subject>.txt".
func (s *Service) RunEmail(ctx context.Context, subject, body string) (*Report, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: email body is empty", ErrInvalidInput)
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "email"
	}
	src := documents.NewStatic(documents.StaticDocument{
		Meta: documents.Meta{
			ID:     fmt.Sprintf("email-%d", s.now().UnixMilli()),
			Name:   subject + ".txt",
			Method: project.MethodEmail,
		},
		Text: body,
	})
	return s.Run(ctx, src)
}

func (s *Service) recordActivity(ctx context.Context, report *Report) {
	if s.activity == nil {
		return
	}
	for _, f := range report.Failures {
		s.activity.Record(ctx, activity.TypeDocumentFailed, "", "Skipped "+f.Document, f)
	}
	for _, p := range report.Projects {
		kind := activity.TypeProjectUpdated
		if report.WasCreated(p.ID) {
			kind = activity.TypeProjectCreated
		}
		summary := p.Name
		if n := len(p.History); n > 0 {
			summary = p.Name + ": " + p.History[n-1].Change
		}
		s.activity.Record(ctx, kind, p.ID, summary, nil)
	}
	for _, a := range report.Conflicts {
		s.activity.Record(ctx, activity.TypeConflictDetected, a.ProjectID,
			fmt.Sprintf("%s on %s", a.ConflictType, a.ProjectName), a)
	}
	s.activity.Record(ctx, activity.TypeBatchCompleted, "",
		fmt.Sprintf("Ingested %d documents (%d failed)", report.Processed, len(report.Failures)),
		map[string]int{
			"processed": report.Processed,
			"created":   report.Created,
			"updated":   report.Updated,
			"conflicts": len(report.Conflicts),
			"failed":    len(report.Failures),
		})
}
