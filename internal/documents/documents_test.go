package documents_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDir_ListAndRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "b-standup.md", "# Standup\nAtlas slipped")
	writeFile(t, dir, "a-memo.txt", "Phoenix is on fire")
	writeFile(t, dir, "deck.pdf", "%PDF-1.4")
	writeFile(t, dir, ".hidden.txt", "skip me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	src := documents.NewDir(dir)
	metas, err := src.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []documents.Meta{
		{ID: "a-memo.txt", Name: "a-memo.txt", MediaType: documents.MediaTypeText},
		{ID: "b-standup.md", Name: "b-standup.md", MediaType: documents.MediaTypeMarkdown},
		{ID: "deck.pdf", Name: "deck.pdf", MediaType: "application/pdf"},
	}, metas)

	text, err := src.Read(ctx, "a-memo.txt")
	require.NoError(t, err)
	require.Equal(t, "Phoenix is on fire", text)

	_, err = src.Read(ctx, "deck.pdf")
	require.ErrorIs(t, err, documents.ErrUnsupportedType)

	_, err = src.Read(ctx, "missing.txt")
	require.ErrorIs(t, err, documents.ErrNotFound)

	_, err = src.Read(ctx, "../etc/passwd.txt")
	require.ErrorIs(t, err, documents.ErrNotFound)
}

func TestDir_Only(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", "1")
	writeFile(t, dir, "two.txt", "2")

	src := documents.NewDir(dir).Only(filepath.Join(dir, "two.txt"))
	metas, err := src.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.Equal(t, "two.txt", metas[0].ID)

	_, err = src.Read(ctx, "one.txt")
	require.ErrorIs(t, err, documents.ErrNotFound)

	all, err := documents.NewDir(dir).Only().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	src := documents.NewStatic(documents.StaticDocument{
		Meta: documents.Meta{Name: "Quarterly update.txt", Method: project.MethodEmail},
		Text: "Atlas is green",
	})

	metas, err := src.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.Equal(t, "Quarterly update.txt", metas[0].ID)
	require.Equal(t, project.MethodEmail, metas[0].CaptureMethod())

	text, err := src.Read(ctx, "Quarterly update.txt")
	require.NoError(t, err)
	require.Equal(t, "Atlas is green", text)

	_, err = src.Read(ctx, "other")
	require.ErrorIs(t, err, documents.ErrNotFound)
}
