package state_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/repository"
	"github.com/rpggio/nexus/internal/repository/mocks"
	"github.com/rpggio/nexus/internal/state"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validProject(name string) *project.Project {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &project.Project{
		ID:           uuid.NewString(),
		Name:         name,
		Priority:     project.DefaultPriority,
		Urgency:      project.DefaultUrgency,
		Sentiment:    project.SentimentCalm,
		Status:       project.StatusActive,
		Risks:        []string{},
		Dependencies: []string{},
		History: []project.HistoryEntry{
			{Timestamp: now, Change: "Project created from initial ingestion", CaptureMethod: project.MethodFile},
		},
		LastUpdated: now,
	}
}

func TestStore_UpdateStartsFromEmptyDocument(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return((*state.Document)(nil), repository.ErrNotFound)
	repo.On("Save", ctx, mock.MatchedBy(func(doc *state.Document) bool {
		return doc.Version == state.SchemaVersion && len(doc.Projects) == 1
	})).Return(nil)

	store := state.NewStore(repo, state.Options{}, nil)
	err := store.Update(ctx, func(doc *state.Document) error {
		doc.PutProject(validProject("Atlas"))
		return nil
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStore_UpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return(state.NewDocument(), nil)

	store := state.NewStore(repo, state.Options{}, nil)
	boom := errors.New("boom")
	err := store.Update(ctx, func(doc *state.Document) error {
		doc.PutProject(validProject("Atlas"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStore_UpdateRejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return(state.NewDocument(), nil)

	store := state.NewStore(repo, state.Options{}, nil)
	err := store.Update(ctx, func(doc *state.Document) error {
		p := validProject("Atlas")
		p.Sentiment = project.SentimentFurious
		p.Urgency = 3
		doc.PutProject(p)
		return nil
	})
	require.ErrorIs(t, err, state.ErrInvalidDocument)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestStore_LoadValidationFailureIsFatal(t *testing.T) {
	ctx := context.Background()

	doc := state.NewDocument()
	doc.Version = "0.9"
	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return(doc, nil)

	store := state.NewStore(repo, state.Options{}, nil)
	called := false
	err := store.Update(ctx, func(*state.Document) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, state.ErrInvalidDocument)
	require.False(t, called)
}

func TestStore_GetProject(t *testing.T) {
	ctx := context.Background()

	p := validProject("Atlas")
	doc := state.NewDocument()
	doc.PutProject(p)
	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return(doc, nil)

	store := state.NewStore(repo, state.Options{}, nil)
	got, err := store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Atlas", got.Name)

	_, err = store.GetProject(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_ListConflicts(t *testing.T) {
	ctx := context.Background()

	p := validProject("Atlas")
	doc := state.NewDocument()
	doc.PutProject(p)
	ts := time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
	doc.AddConflicts(
		conflict.Alert{ID: "c1", ProjectID: p.ID, Timestamp: ts, ConflictType: conflict.TypeUrgencySpike},
		conflict.Alert{ID: "c2", ProjectID: p.ID, Timestamp: ts, ConflictType: conflict.TypeSentimentChange, Resolved: true},
		conflict.Alert{ID: "c3", ProjectID: p.ID, Timestamp: ts, ConflictType: conflict.TypePriorityShift},
	)
	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return(doc, nil)

	store := state.NewStore(repo, state.Options{}, nil)
	all, err := store.ListConflicts(ctx, conflict.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c3", all[0].ID)

	open, err := store.ListConflicts(ctx, conflict.ListOptions{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, "c3", open[0].ID)
	require.Equal(t, "c1", open[1].ID)
}

func TestStore_LockTimeout(t *testing.T) {
	ctx := context.Background()
	lockPath := filepath.Join(t.TempDir(), "state.lock")

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = held.Unlock() })

	repo := &mocks.DocumentRepository{}
	store := state.NewStore(repo, state.Options{LockPath: lockPath, LockTimeout: 100 * time.Millisecond}, nil)
	err = store.Update(ctx, func(*state.Document) error { return nil })
	require.ErrorIs(t, err, state.ErrLocked)
	repo.AssertNotCalled(t, "Load", mock.Anything)
}

func TestStore_LockReleasedAfterUpdate(t *testing.T) {
	ctx := context.Background()
	lockPath := filepath.Join(t.TempDir(), "state.lock")

	repo := &mocks.DocumentRepository{}
	repo.On("Load", ctx).Return(state.NewDocument(), nil)
	repo.On("Save", ctx, mock.Anything).Return(nil)

	store := state.NewStore(repo, state.Options{LockPath: lockPath}, nil)
	require.NoError(t, store.Update(ctx, func(*state.Document) error { return nil }))
	require.NoError(t, store.Update(ctx, func(*state.Document) error { return nil }))

	other := flock.New(lockPath)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	require.NoError(t, other.Unlock())
}
