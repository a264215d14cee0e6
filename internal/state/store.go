package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/repository"
)

const (
	defaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// Options configures a Store.
type Options struct {
	// LockPath enables a cross-process exclusive lock around each unit of
	// work. Empty means last save wins between processes.
	LockPath string
	// LockTimeout bounds how long Update waits for the lock.
	LockTimeout time.Duration
}

// Store runs units of work against a document repository.
type Store struct {
	repo   Repository
	opts   Options
	logger *slog.Logger

	mu sync.Mutex
}

// NewStore creates a store over the given repository.
func NewStore(repo Repository, opts Options, logger *slog.Logger) *Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	return &Store{repo: repo, opts: opts, logger: logger}
}

// Update loads the document, passes it to fn and saves the result. If fn
// returns an error, or the mutated document fails validation, nothing is
// written and the in-memory changes are discarded.
func (s *Store) Update(ctx context.Context, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := Validate(doc); err != nil {
		if s.logger != nil {
			s.logger.Error("refusing to save invalid document", "error", err)
		}
		return err
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// View loads the document and passes it to fn without saving.
func (s *Store) View(ctx context.Context, fn func(doc *Document) error) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// ListProjects returns every project in document order.
func (s *Store) ListProjects(ctx context.Context) ([]*project.Project, error) {
	var projects []*project.Project
	err := s.View(ctx, func(doc *Document) error {
		projects = doc.Projects
		return nil
	})
	return projects, err
}

// GetProject returns the project with the given id or repository.ErrNotFound.
func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	var found *project.Project
	err := s.View(ctx, func(doc *Document) error {
		found = doc.Project(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

// ListConflicts returns alerts newest first, filtered by opts.
func (s *Store) ListConflicts(ctx context.Context, opts conflict.ListOptions) ([]conflict.Alert, error) {
	var alerts []conflict.Alert
	err := s.View(ctx, func(doc *Document) error {
		for _, a := range slices.Backward(doc.Conflicts) {
			if opts.UnresolvedOnly && a.Resolved {
				continue
			}
			if opts.ProjectID != "" && a.ProjectID != opts.ProjectID {
				continue
			}
			alerts = append(alerts, a)
			if opts.Limit > 0 && len(alerts) == opts.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []conflict.Alert{}
	}
	return alerts, nil
}

func (s *Store) load(ctx context.Context) (*Document, error) {
	doc, err := s.repo.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	if s.opts.LockPath == "" {
		return func() {}, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	fl := flock.New(s.opts.LockPath)
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquiring state lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return func() {
		if err := fl.Unlock(); err != nil && s.logger != nil {
			s.logger.Warn("failed to release state lock", "path", s.opts.LockPath, "error", err)
		}
	}, nil
}
