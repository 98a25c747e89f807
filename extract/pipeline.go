// Package extract implements the Catchfish extraction pipeline: raw source
// documents are reduced to statements, statements to anchors, anchors to
// knowledge graph triples with provenance. Every stage's output is retained
// as an artifact so failing validation scenarios can be traced to the stage
// that lost the content.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/catchfish/source"
	"github.com/c360studio/catchfish/source/chunker"
	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/vocabulary"
)

// maxHintRelations bounds co-occurrence triples emitted per hint statement.
const maxHintRelations = 3

// Anchor is a graph-ready candidate fact identified in a statement.
type Anchor struct {
	Subject   string
	Predicate string
	Object    string
	SourceID  string
}

// RunResult summarizes one extraction run.
type RunResult struct {
	RunID       string    `json:"run_id"`
	Documents   int       `json:"documents"`
	Statements  int       `json:"statements"`
	Anchors     int       `json:"anchors"`
	Inserted    int       `json:"inserted"`
	Duplicates  int       `json:"duplicates"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// Triples lists the triples inserted by this run, for publishing.
	Triples []triple.Triple `json:"-"`
}

// Pipeline ingests documents into a triple store. Runs are serialized:
// the store demands single-writer discipline, and each run's artifacts
// replace the previous run's.
type Pipeline struct {
	store     *triple.Store
	extractor *vocabulary.Extractor
	chunker   *chunker.Chunker
	logger    *slog.Logger

	mu        sync.Mutex
	artifacts *Artifacts
}

// New creates an extraction pipeline writing into store.
func New(store *triple.Store, extractor *vocabulary.Extractor) *Pipeline {
	if extractor == nil {
		extractor = vocabulary.Default()
	}
	return &Pipeline{
		store:     store,
		extractor: extractor,
		chunker:   chunker.NewDefault(),
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for the pipeline.
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// Artifacts returns the stage artifacts of the most recent run, or nil
// before the first run.
func (p *Pipeline) Artifacts() *Artifacts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.artifacts
}

// Run extracts triples from docs. Hints are keywords from the previous
// cycle's gap report; statements mentioning a hint get additional
// co-occurrence anchors so under-covered content reaches the graph.
// Extraction can be long-running: ctx is checked between documents.
func (p *Pipeline) Run(ctx context.Context, docs []source.Document, hints []string) (*RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := &RunResult{
		RunID:     "run-" + uuid.New().String()[:8],
		Documents: len(docs),
		StartedAt: time.Now().UTC(),
	}
	artifacts := &Artifacts{RunID: result.RunID}

	log := p.logger.With("run_id", result.RunID)
	log.Info("extraction run started", "documents", len(docs), "hints", len(hints))

	// Stage 1: raw source text.
	var raw strings.Builder
	for _, doc := range docs {
		raw.WriteString(doc.Body)
		raw.WriteString("\n")
	}
	artifacts.Raw = raw.String()

	// Stage 2: intermediate representation.
	var statements []statement
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction cancelled: %w", err)
		}
		statements = append(statements, p.intermediate(doc)...)
	}
	result.Statements = len(statements)
	artifacts.Intermediate = joinStatements(statements)

	// Stage 3: anchor extraction.
	var anchors []Anchor
	for _, st := range statements {
		anchors = append(anchors, p.anchorStatement(st, hints)...)
	}
	result.Anchors = len(anchors)
	artifacts.Anchors = joinAnchors(anchors)

	// Stage 4: graph construction.
	now := time.Now().UTC()
	for _, a := range anchors {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction cancelled: %w", err)
		}
		t := triple.Triple{
			Subject:   a.Subject,
			Predicate: a.Predicate,
			Object:    a.Object,
			Provenance: triple.Provenance{
				SourceID:  a.SourceID,
				RunID:     result.RunID,
				Timestamp: now,
			},
		}
		switch err := p.store.Insert(t); {
		case err == nil:
			result.Inserted++
			result.Triples = append(result.Triples, t)
		case errors.Is(err, triple.ErrDuplicateTriple):
			result.Duplicates++
		default:
			log.Warn("anchor rejected by store", "subject", a.Subject, "error", err)
		}
	}

	artifacts.Graph = graphSurface(p.store)
	p.artifacts = artifacts

	result.CompletedAt = time.Now().UTC()
	log.Info("extraction run complete",
		"statements", result.Statements,
		"anchors", result.Anchors,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates)

	return result, nil
}

// statement is one IR unit: a declarative line of source text.
type statement struct {
	Text     string
	SourceID string
	Section  string
}

// intermediate chunks a document and splits chunks into statements.
func (p *Pipeline) intermediate(doc source.Document) []statement {
	var out []statement
	for _, chunk := range p.chunker.Chunk(doc.ID, doc.Body) {
		if chunk.Section != "" {
			out = append(out, statement{
				Text:     chunk.Section,
				SourceID: doc.ID,
				Section:  chunk.Section,
			})
		}
		for _, line := range splitStatements(chunk.Content) {
			out = append(out, statement{
				Text:     line,
				SourceID: doc.ID,
				Section:  chunk.Section,
			})
		}
	}
	return out
}

// splitStatements reduces chunk content to declarative statements: one per
// sentence or list item, at least three words, markup stripped.
func splitStatements(content string) []string {
	var out []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "-*>0123456789. \t")

		for _, sentence := range strings.FieldsFunc(trimmed, func(r rune) bool {
			return r == '.' || r == ';' || r == '!' || r == '?'
		}) {
			sentence = strings.TrimSpace(sentence)
			if len(strings.Fields(sentence)) >= 3 {
				out = append(out, sentence)
			}
		}
	}
	return out
}

func joinStatements(statements []statement) string {
	var b strings.Builder
	for _, st := range statements {
		b.WriteString(st.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func joinAnchors(anchors []Anchor) string {
	var b strings.Builder
	for _, a := range anchors {
		b.WriteString(a.Subject)
		b.WriteString(" | ")
		b.WriteString(a.Predicate)
		b.WriteString(" | ")
		b.WriteString(a.Object)
		b.WriteString("\n")
	}
	return b.String()
}

// graphSurface renders the store's current contents as searchable text.
func graphSurface(store *triple.Store) string {
	var b strings.Builder
	for _, t := range store.All() {
		b.WriteString(t.Subject)
		b.WriteString(" ")
		b.WriteString(t.Predicate)
		b.WriteString(" ")
		b.WriteString(t.Object)
		b.WriteString("\n")
	}
	return b.String()
}
