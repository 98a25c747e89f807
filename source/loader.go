package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/catchfish/source/htmlconv"
)

// loadableExtensions maps extensions the loader accepts.
var loadableExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
}

// LoadFile loads and normalizes a single document.
// Markdown and plaintext pass through with frontmatter extraction; HTML is
// reduced to its readable content and converted to markdown.
func LoadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &Document{
		ID:       GenerateID(path, content),
		Filename: filepath.Base(path),
		Path:     path,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		converted, err := htmlconv.Convert(content, filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
		doc.Body = converted.Markdown
		if converted.Title != "" {
			doc.Frontmatter = map[string]any{"title": converted.Title}
		}
	default:
		frontmatter, body := splitFrontmatter(string(content))
		doc.Frontmatter = frontmatter
		doc.Body = body
	}

	return doc, nil
}

// LoadDir recursively loads all documents under dir, skipping excluded
// directory names, in path order.
func LoadDir(dir string, excludeDirs []string) ([]Document, error) {
	excludes := make(map[string]bool, len(excludeDirs))
	for _, name := range excludeDirs {
		excludes[name] = true
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if excludes[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if loadableExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source dir: %w", err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// splitFrontmatter extracts YAML frontmatter from content. On any parse
// problem the entire content is treated as body.
func splitFrontmatter(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return nil, content
	}

	rest := strings.TrimPrefix(content, "---")
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n---")
	if end == -1 {
		return nil, content
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &frontmatter); err != nil {
		return nil, content
	}

	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")
	return frontmatter, body
}
