package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_MarkdownWithFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runbook.md")
	content := "---\ntitle: Rollback Runbook\ncategory: sop\n---\n# Rollback\n\nSnapshot first."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)

	assert.True(t, doc.HasFrontmatter())
	assert.Equal(t, "Rollback Runbook", doc.Frontmatter["title"])
	assert.Equal(t, "# Rollback\n\nSnapshot first.", doc.Body)
	assert.Contains(t, doc.ID, "doc.runbook.")
}

func TestLoadFile_PlainTextWithoutFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just notes"), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)

	assert.False(t, doc.HasFrontmatter())
	assert.Equal(t, "just notes", doc.Body)
}

func TestLoadFile_BrokenFrontmatterFallsBackToBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.md")
	content := "---\n: not yaml [\n---\nbody"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, doc.HasFrontmatter())
	assert.Equal(t, content, doc.Body)
}

func TestLoadFile_HTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	content := `<html><head><title>Deploy Guide</title></head><body><article><h1>Deploying</h1><p>Use the pipeline.</p></article></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)

	assert.Contains(t, doc.Body, "Deploying")
	assert.NotContains(t, doc.Body, "<p>")
	assert.Equal(t, "Deploy Guide", doc.Frontmatter["title"])
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bravo"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.png"), []byte{0x89}, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "d.md"), []byte("hidden"), 0o644))

	docs, err := LoadDir(dir, []string{".git"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.md", docs[0].Filename)
	assert.Equal(t, "b.txt", docs[1].Filename)
}

func TestGenerateID_StableAndDistinct(t *testing.T) {
	a := GenerateID("Run Book.md", []byte("content"))
	assert.Equal(t, a, GenerateID("Run Book.md", []byte("content")))
	assert.Contains(t, a, "doc.run-book.")
	assert.NotEqual(t, a, GenerateID("Run Book.md", []byte("other")))
}
