// Package documents exposes the inputs of an ingestion batch: a listing of
// available documents and their decoded text.
package documents

import (
	"context"
	"errors"

	"github.com/rpggio/nexus/internal/domain/project"
)

var (
	// ErrNotFound indicates no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrUnsupportedType indicates a document whose media type cannot be decoded.
	ErrUnsupportedType = errors.New("unsupported document type")
)

// Media types decoded as text.
const (
	MediaTypeText     = "text/plain"
	MediaTypeMarkdown = "text/markdown"
)

// Meta describes one available document.
type Meta struct {
	ID        string
	Name      string
	MediaType string
	// Method is the capture method recorded for updates from this document.
	// Empty means file.
	Method project.CaptureMethod
}

// CaptureMethod returns the method for updates sourced from this document.
func (m Meta) CaptureMethod() project.CaptureMethod {
	if m.Method == "" {
		return project.MethodFile
	}
	return m.Method
}

// Source lists documents and reads their text.
type Source interface {
	List(ctx context.Context) ([]Meta, error)
	Read(ctx context.Context, id string) (string, error)
}

// Decodable reports whether the media type is read as text.
func Decodable(mediaType string) bool {
	return mediaType == MediaTypeText || mediaType == MediaTypeMarkdown
}
