package project

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/rpggio/nexus/internal/repository"
)

// Service handles read-side project operations.
type Service struct {
	repo     Repository
	resolver Resolver
	search   SearchRepository
	logger   *slog.Logger
}

// NewService creates a new project service. search may be nil when the
// storage backend has no index.
func NewService(repo Repository, resolver Resolver, search SearchRepository, logger *slog.Logger) *Service {
	if resolver == nil {
		resolver = SubstringResolver{}
	}
	return &Service{repo: repo, resolver: resolver, search: search, logger: logger}
}

// List returns project summaries ordered by priority, then urgency, then name.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	summaries := make([]Summary, 0, len(projects))
	for _, p := range projects {
		if len(opts.Statuses) > 0 && !slices.Contains(opts.Statuses, p.Status) {
			continue
		}
		if p.Priority < opts.MinPriority {
			continue
		}
		summaries = append(summaries, p.Summarize())
	}

	slices.SortStableFunc(summaries, func(a, b Summary) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Urgency, a.Urgency); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(summaries) {
			return []Summary{}, nil
		}
		summaries = summaries[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(summaries) {
		summaries = summaries[:opts.Limit]
	}
	return summaries, nil
}

// Get fetches a project by ID, falling back to name resolution.
func (s *Service) Get(ctx context.Context, ref string) (*Project, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, ErrInvalidInput
	}

	proj, err := s.repo.GetProject(ctx, ref)
	if err == nil {
		return proj, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("getting project: %w", err)
	}

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if match := s.resolver.Resolve(ref, projects); match != nil {
		return match, nil
	}
	return nil, ErrProjectNotFound
}

// Search runs full-text search over project names, descriptions, notes and
// risks.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidInput)
	}
	if s.search == nil {
		return nil, ErrSearchUnavailable
	}
	results, err := s.search.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}
	return results, nil
}
