package documents

import (
	"context"
	"fmt"
)

// StaticDocument is an in-memory document.
type StaticDocument struct {
	Meta
	Text string
}

// Static is a Source over documents held in memory, such as an email body.
type Static struct {
	docs []StaticDocument
}

// NewStatic creates a source over the given documents, in order. Missing ids
// default to the name and missing media types to plain text.
func NewStatic(docs ...StaticDocument) *Static {
	s := &Static{docs: make([]StaticDocument, 0, len(docs))}
	for _, d := range docs {
		if d.ID == "" {
			d.ID = d.Name
		}
		if d.MediaType == "" {
			d.MediaType = MediaTypeText
		}
		s.docs = append(s.docs, d)
	}
	return s
}

func (s *Static) List(_ context.Context) ([]Meta, error) {
	metas := make([]Meta, 0, len(s.docs))
	for _, d := range s.docs {
		metas = append(metas, d.Meta)
	}
	return metas, nil
}

func (s *Static) Read(_ context.Context, id string) (string, error) {
	for _, d := range s.docs {
		if d.ID != id {
			continue
		}
		if !Decodable(d.MediaType) {
			return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, id, d.MediaType)
		}
		return d.Text, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, id)
}
