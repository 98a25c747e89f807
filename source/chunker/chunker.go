// Package chunker splits documents into section-aligned chunks for the
// extraction pipeline's intermediate representation.
package chunker

import (
	"fmt"
	"strings"

	"github.com/c360studio/catchfish/source"
)

// Config holds chunking configuration.
type Config struct {
	// MaxChars is the maximum chunk size in characters. Sections larger
	// than this are split on paragraph boundaries.
	MaxChars int
}

// DefaultConfig returns sensible chunking defaults.
func DefaultConfig() Config {
	return Config{MaxChars: 4000}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("MaxChars must be positive, got %d", c.MaxChars)
	}
	return nil
}

// Chunker splits document bodies into chunks.
type Chunker struct {
	config Config
}

// New creates a Chunker with the given configuration.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxChars == 0 {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: cfg}, nil
}

// NewDefault creates a Chunker with default configuration.
func NewDefault() *Chunker {
	c, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

type section struct {
	heading string
	content string
}

// Chunk splits a document body into section-aligned chunks.
func (c *Chunker) Chunk(parentID, body string) []source.Chunk {
	var chunks []source.Chunk
	for _, sec := range parseSections(body) {
		for _, part := range c.splitSection(sec.content) {
			chunks = append(chunks, source.Chunk{
				ParentID: parentID,
				Index:    len(chunks),
				Section:  sec.heading,
				Content:  part,
			})
		}
	}
	return chunks
}

// parseSections splits markdown on headings. Content before the first
// heading becomes an unnamed section.
func parseSections(body string) []section {
	var sections []section
	current := section{}

	flush := func() {
		if strings.TrimSpace(current.content) != "" {
			current.content = strings.TrimSpace(current.content)
			sections = append(sections, current)
		}
	}

	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(trimmed, "#") {
			if heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#")); heading != "" {
				flush()
				current = section{heading: heading}
				continue
			}
		}
		current.content += line + "\n"
	}
	flush()
	return sections
}

// splitSection breaks oversized sections on paragraph boundaries.
func (c *Chunker) splitSection(content string) []string {
	if len(content) <= c.config.MaxChars {
		return []string{content}
	}

	var parts []string
	var buf strings.Builder
	for _, para := range strings.Split(content, "\n\n") {
		if buf.Len() > 0 && buf.Len()+len(para) > c.config.MaxChars {
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		buf.WriteString(para)
		buf.WriteString("\n\n")
	}
	if strings.TrimSpace(buf.String()) != "" {
		parts = append(parts, strings.TrimSpace(buf.String()))
	}
	return parts
}
