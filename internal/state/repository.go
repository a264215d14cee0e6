package state

import "context"

// Repository persists whole documents. Load returns repository.ErrNotFound
// when nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
