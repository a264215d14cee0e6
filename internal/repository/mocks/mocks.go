package mocks

import (
	"context"

	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/state"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) ListProjects(ctx context.Context) ([]*project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]*project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetProject(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

// SearchRepository is a mock for project.SearchRepository.
type SearchRepository struct {
	mock.Mock
}

func (m *SearchRepository) Search(ctx context.Context, query string, opts project.SearchOptions) ([]project.SearchResult, error) {
	args := m.Called(ctx, query, opts)
	if list, ok := args.Get(0).([]project.SearchResult); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// DocumentRepository is a mock for state.Repository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Load(ctx context.Context) (*state.Document, error) {
	args := m.Called(ctx)
	if doc, ok := args.Get(0).(*state.Document); ok && doc != nil {
		return doc.Clone(), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Save(ctx context.Context, doc *state.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Extractor is a mock for ingest.Extractor.
type Extractor struct {
	mock.Mock
}

func (m *Extractor) Extract(ctx context.Context, text, label string) ([]project.Candidate, error) {
	args := m.Called(ctx, text, label)
	if list, ok := args.Get(0).([]project.Candidate); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Explainer is a mock for conflict.Explainer.
type Explainer struct {
	mock.Mock
}

func (m *Explainer) Explain(ctx context.Context, req conflict.ExplainRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Summarizer is a mock for merge.Summarizer.
type Summarizer struct {
	mock.Mock
}

func (m *Summarizer) Summarize(ctx context.Context, existing *project.Project, changes []project.Change) (string, error) {
	args := m.Called(ctx, existing, changes)
	return args.String(0), args.Error(1)
}

// NoteParser is a mock for capture.NoteParser.
type NoteParser struct {
	mock.Mock
}

func (m *NoteParser) ParseNote(ctx context.Context, text string, knownNames []string) (*capture.ParsedNote, error) {
	args := m.Called(ctx, text, knownNames)
	if note, ok := args.Get(0).(*capture.ParsedNote); ok {
		return note, args.Error(1)
	}
	return nil, args.Error(1)
}
