package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/repository"
	"github.com/rpggio/nexus/internal/sqlite"
	"github.com/rpggio/nexus/internal/state"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDocument() *state.Document {
	ts := time.Date(2026, 2, 3, 10, 15, 30, 123456789, time.UTC)
	deadline := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	atlas := &project.Project{
		ID:           uuid.NewString(),
		Name:         "Project Atlas",
		Description:  "Warehouse automation rollout",
		Priority:     8,
		Urgency:      9,
		Sentiment:    project.SentimentFurious,
		Status:       project.StatusBlocked,
		Deadline:     &deadline,
		Notes:        "Vendor slipped",
		Risks:        []string{"vendor delay", "budget"},
		Dependencies: []string{"ERP upgrade"},
		History: []project.HistoryEntry{
			{Timestamp: ts, Change: "Project created from initial ingestion", CaptureMethod: project.MethodFile},
			{Timestamp: ts.Add(time.Minute), Change: "Urgency increased from 5 to 9", CaptureMethod: project.MethodVoice},
		},
		SourceFile:  "standup.md",
		LastUpdated: ts.Add(time.Minute),
	}
	beacon := &project.Project{
		ID:           uuid.NewString(),
		Name:         "Beacon",
		Priority:     5,
		Urgency:      5,
		Sentiment:    project.SentimentCalm,
		Status:       project.StatusActive,
		Risks:        []string{},
		Dependencies: []string{},
		History: []project.HistoryEntry{
			{Timestamp: ts, Change: "Created via quick-capture: beacon kickoff", CaptureMethod: project.MethodQuickCapture},
		},
		LastUpdated: ts,
	}

	doc := state.NewDocument()
	doc.PutProject(atlas)
	doc.PutProject(beacon)
	doc.AddConflicts(conflict.Alert{
		ID:            uuid.NewString(),
		ProjectID:     atlas.ID,
		ProjectName:   atlas.Name,
		Timestamp:     ts.Add(time.Minute),
		ConflictType:  conflict.TypeUrgencySpike,
		PreviousValue: "5",
		NewValue:      "9 (+4)",
		Analysis:      "Escalation follows a calm update.",
	})
	doc.Metadata.TotalFilesProcessed = 3
	doc.Metadata.QualityScore = 97
	doc.Metadata.LastIngestion = &ts
	return doc
}

func TestDocumentRepository_LoadEmpty(t *testing.T) {
	repo := sqlite.NewDocumentRepository(openDB(t))
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDocumentRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewDocumentRepository(openDB(t))

	doc := sampleDocument()
	require.NoError(t, repo.Save(ctx, doc))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, doc, loaded)
	require.NoError(t, state.Validate(loaded))
}

func TestDocumentRepository_SaveReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewDocumentRepository(openDB(t))

	doc := sampleDocument()
	require.NoError(t, repo.Save(ctx, doc))

	doc.Projects = doc.Projects[:1]
	doc.Projects[0].Priority = 2
	doc.Metadata.TotalFilesProcessed = 4
	require.NoError(t, repo.Save(ctx, doc))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Projects, 1)
	require.Equal(t, 2, loaded.Projects[0].Priority)
	require.Len(t, loaded.Conflicts, 1)
	require.Equal(t, 4, loaded.Metadata.TotalFilesProcessed)
}

func TestDocumentRepository_FailedSaveKeepsPreviousDocument(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewDocumentRepository(openDB(t))

	doc := sampleDocument()
	require.NoError(t, repo.Save(ctx, doc))

	bad := sampleDocument()
	bad.Conflicts[0].ProjectID = uuid.NewString()
	err := repo.Save(ctx, bad)
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, doc.Projects[0].ID, loaded.Projects[0].ID)
}

func TestDocumentRepository_WithStore(t *testing.T) {
	ctx := context.Background()
	store := state.NewStore(sqlite.NewDocumentRepository(openDB(t)), state.Options{}, nil)

	require.NoError(t, store.Update(ctx, func(doc *state.Document) error {
		doc.Reconcile(sampleDocument().Projects)
		return nil
	}))

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "Project Atlas", projects[0].Name)
}
