// Package docindex provides fallback full-text search over source documents.
// It is the unstructured evidence source consulted when the knowledge graph
// alone is not dispositive for a question.
package docindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrSearchTimeout is returned when a search exceeds its deadline. The
// partial result accumulated so far is still returned; callers treat this
// as a soft failure and fall back to graph-only evidence.
var ErrSearchTimeout = errors.New("document search timed out")

// Config configures the document index.
type Config struct {
	// Roots lists directories or doublestar glob patterns to scan.
	Roots []string

	// Extensions lists file extensions considered searchable.
	Extensions []string

	// ExcludeDirs lists directory names to skip (e.g. ".git", "node_modules").
	ExcludeDirs []string

	// Timeout bounds a single search. Zero means no deadline beyond ctx.
	Timeout time.Duration
}

// DefaultConfig returns sensible search defaults.
func DefaultConfig() Config {
	return Config{
		Extensions:  []string{".md", ".markdown", ".txt", ".feature"},
		ExcludeDirs: []string{".git", "node_modules", "vendor"},
		Timeout:     10 * time.Second,
	}
}

// Result is the outcome of a keyword search.
type Result struct {
	// MatchCount is the total keyword hit count summed across files.
	MatchCount int `json:"match_count"`

	// Sources lists files containing at least one match, for provenance.
	Sources []string `json:"sources"`
}

// Index scans configured roots on every search. There is no persistent
// inverted index: acceptable below roughly 10k files, a known scaling limit
// beyond that.
type Index struct {
	config     Config
	logger     *slog.Logger
	extensions map[string]bool
	excludes   map[string]bool
}

// New creates a document index over the configured roots.
func New(cfg Config) *Index {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = DefaultConfig().ExcludeDirs
	}

	ix := &Index{
		config:     cfg,
		logger:     slog.Default(),
		extensions: make(map[string]bool),
		excludes:   make(map[string]bool),
	}
	for _, ext := range cfg.Extensions {
		ix.extensions[strings.ToLower(ext)] = true
	}
	for _, dir := range cfg.ExcludeDirs {
		ix.excludes[dir] = true
	}
	return ix
}

// SetLogger sets the logger for the index.
func (ix *Index) SetLogger(logger *slog.Logger) {
	ix.logger = logger
}

// Search counts case-insensitive keyword hits across all files under the
// configured roots. On deadline expiry it returns the partial result along
// with ErrSearchTimeout.
func (ix *Index) Search(ctx context.Context, keywords []string) (Result, error) {
	if ix.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ix.config.Timeout)
		defer cancel()
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			lowered = append(lowered, strings.ToLower(kw))
		}
	}

	var result Result
	if len(lowered) == 0 {
		return result, nil
	}

	files, err := ix.resolveFiles()
	if err != nil {
		return result, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			ix.logger.Warn("document search deadline reached",
				"scanned", len(result.Sources),
				"matches", result.MatchCount)
			return result, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			ix.logger.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}

		text := strings.ToLower(string(content))
		hits := 0
		for _, kw := range lowered {
			hits += strings.Count(text, kw)
		}
		if hits > 0 {
			result.MatchCount += hits
			result.Sources = append(result.Sources, path)
		}
	}

	return result, nil
}

// SearchKeywords adapts Search to the reasoner's evidence source contract.
func (ix *Index) SearchKeywords(ctx context.Context, keywords []string) (int, []string, error) {
	res, err := ix.Search(ctx, keywords)
	return res.MatchCount, res.Sources, err
}

// resolveFiles expands roots (paths or glob patterns) into a deduplicated,
// ordered list of searchable files.
func (ix *Index) resolveFiles() ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] && ix.searchable(path) {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range ix.config.Roots {
		var targets []string
		if isGlobPattern(root) {
			matches, err := doublestar.FilepathGlob(root)
			if err != nil {
				return nil, fmt.Errorf("expand root pattern %q: %w", root, err)
			}
			targets = matches
		} else {
			targets = []string{root}
		}

		for _, target := range targets {
			info, err := os.Stat(target)
			if err != nil {
				ix.logger.Warn("skipping unreadable root", "root", target, "error", err)
				continue
			}
			if !info.IsDir() {
				add(target)
				continue
			}
			err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil // skip unreadable entries
				}
				if d.IsDir() {
					if ix.excludes[d.Name()] {
						return filepath.SkipDir
					}
					return nil
				}
				add(path)
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walk root %q: %w", target, err)
			}
		}
	}

	return files, nil
}

func (ix *Index) searchable(path string) bool {
	return ix.extensions[strings.ToLower(filepath.Ext(path))]
}

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
