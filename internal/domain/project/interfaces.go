package project

import "context"

// Repository provides read access to stored projects.
type Repository interface {
	ListProjects(ctx context.Context) ([]*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
}

// SearchRepository performs full-text search over projects.
type SearchRepository interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}
