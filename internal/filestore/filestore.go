// Package filestore keeps the state document in a single JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rpggio/nexus/internal/repository"
	"github.com/rpggio/nexus/internal/state"
)

// DefaultFileName is the conventional state file name.
const DefaultFileName = "nexus_state.json"

// Repository implements state.Repository over a JSON file.
type Repository struct {
	path string
}

// New creates a repository for the file at path.
func New(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the state file path.
func (r *Repository) Path() string {
	return r.path
}

// Load reads and decodes the state file. A missing or empty file yields
// repository.ErrNotFound.
func (r *Repository) Load(ctx context.Context) (*state.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return nil, repository.ErrNotFound
	}

	var doc state.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", state.ErrInvalidDocument, r.path, err)
	}
	return &doc, nil
}

// Save writes doc to a temp file next to the target and renames it into
// place.
func (r *Repository) Save(ctx context.Context, doc *state.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, r.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

var _ state.Repository = (*Repository)(nil)
