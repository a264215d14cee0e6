package documents

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

// Dir is a Source over the regular files of one directory. Document ids are
// file names; subdirectories and dotfiles are ignored.
type Dir struct {
	root string
	only map[string]bool
}

// NewDir creates a source over the directory at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

// Only returns a source restricted to the named files. With no names it
// returns d unchanged.
func (d *Dir) Only(names ...string) *Dir {
	if len(names) == 0 {
		return d
	}
	only := make(map[string]bool, len(names))
	for _, n := range names {
		only[filepath.Base(n)] = true
	}
	return &Dir{root: d.root, only: only}
}

// List returns the directory's documents sorted by name.
func (d *Dir) List(ctx context.Context) ([]Meta, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.root, err)
	}

	metas := make([]Meta, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if d.only != nil && !d.only[name] {
			continue
		}
		metas = append(metas, Meta{ID: name, Name: name, MediaType: MediaTypeOf(name)})
	}
	slices.SortFunc(metas, func(a, b Meta) int { return strings.Compare(a.Name, b.Name) })
	return metas, nil
}

// Read returns the text of the named file.
func (d *Dir) Read(ctx context.Context, id string) (string, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if d.only != nil && !d.only[id] {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if mt := MediaTypeOf(id); !Decodable(mt) {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, id, mt)
	}

	b, err := os.ReadFile(filepath.Join(d.root, id))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", id, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedType, id)
	}
	return string(b), nil
}

// MediaTypeOf guesses a media type from the file extension.
func MediaTypeOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".text", ".log":
		return MediaTypeText
	case ".md", ".markdown":
		return MediaTypeMarkdown
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	return "application/octet-stream"
}
