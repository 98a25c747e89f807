// Package source provides document types and loading for knowledge
// extraction. Documents reach the pipeline as already-normalized text:
// markdown and plaintext pass through, HTML is converted on load.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Document is a normalized source document.
type Document struct {
	// ID is the stable document identifier derived from filename and content.
	ID string `json:"id"`

	// Filename is the original filename.
	Filename string `json:"filename"`

	// Path is the path the document was loaded from.
	Path string `json:"path,omitempty"`

	// Body is the normalized text content, without frontmatter.
	Body string `json:"body"`

	// Frontmatter contains parsed YAML frontmatter if present.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// HasFrontmatter returns true if the document has parsed frontmatter.
func (d *Document) HasFrontmatter() bool {
	return len(d.Frontmatter) > 0
}

// Chunk is a section-aligned slice of a document.
type Chunk struct {
	// ParentID is the ID of the parent document.
	ParentID string `json:"parent_id"`

	// Index is the chunk sequence number, 0-indexed.
	Index int `json:"index"`

	// Section is the heading this chunk belongs to, if any.
	Section string `json:"section,omitempty"`

	// Content is the chunk text.
	Content string `json:"content"`
}

// GenerateID derives a stable document ID from the filename and content.
// Format: doc.<basename>.<hash8>
func GenerateID(filename string, content []byte) string {
	sum := sha256.Sum256(content)
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))
	return fmt.Sprintf("doc.%s.%s", base, hex.EncodeToString(sum[:])[:8])
}
