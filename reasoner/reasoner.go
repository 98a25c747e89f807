// Package reasoner answers questions by combining knowledge graph evidence
// with fallback full-text search, producing a confidence score with full
// provenance. All heuristics are deterministic and lexical; the goal is
// explainability, not statistical accuracy.
package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/vocabulary"
)

// EvidenceSource is the fallback unstructured evidence strategy, consulted
// when graph evidence alone is not dispositive. docindex.Index satisfies it.
type EvidenceSource interface {
	// SearchKeywords returns the total keyword hit count and the matched
	// files. An error is a soft failure: any partial counts returned with
	// it are still usable.
	SearchKeywords(ctx context.Context, keywords []string) (int, []string, error)
}

// Config holds the evidence aggregation tunables. The constants are
// empirically chosen, not principled; treat them as configuration.
type Config struct {
	// FallbackFloor is the graph triple count below which fallback search
	// is consulted.
	FallbackFloor int

	// GraphWeight is the per-triple evidence weight.
	GraphWeight float64

	// DocWeight is the per-document-hit evidence weight. Structured graph
	// evidence is deliberately worth more per unit than raw text matches.
	DocWeight float64
}

// DefaultConfig returns the default aggregation tunables.
func DefaultConfig() Config {
	return Config{
		FallbackFloor: 3,
		GraphWeight:   1.0,
		DocWeight:     0.3,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.FallbackFloor < 0 {
		return fmt.Errorf("FallbackFloor must be non-negative, got %d", c.FallbackFloor)
	}
	if c.GraphWeight <= 0 {
		return fmt.Errorf("GraphWeight must be positive, got %v", c.GraphWeight)
	}
	if c.DocWeight <= 0 {
		return fmt.Errorf("DocWeight must be positive, got %v", c.DocWeight)
	}
	return nil
}

// Reasoner answers questions against one triple store and one optional
// fallback evidence source. Answering is read-only: instances are safe for
// concurrent use across questions.
type Reasoner struct {
	store     *triple.Store
	docs      EvidenceSource
	extractor *vocabulary.Extractor
	config    Config
	logger    *slog.Logger
}

// New creates a reasoner. docs may be nil to disable fallback search.
func New(store *triple.Store, docs EvidenceSource, extractor *vocabulary.Extractor, cfg Config) (*Reasoner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if extractor == nil {
		extractor = vocabulary.Default()
	}
	return &Reasoner{
		store:     store,
		docs:      docs,
		extractor: extractor,
		config:    cfg,
		logger:    slog.Default(),
	}, nil
}

// SetLogger sets the logger for the reasoner.
func (r *Reasoner) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Answer computes the evidence set for a question.
// A question yielding zero keywords returns confidence 0 with empty
// evidence; this is a reported outcome, never an error.
func (r *Reasoner) Answer(ctx context.Context, question string) (*EvidenceSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := &EvidenceSet{Evidence: []EvidenceItem{}}

	set.Keywords = r.extractor.Keywords(question)
	if len(set.Keywords) == 0 {
		r.logger.Debug("no keywords extracted", "question", question)
		return set, nil
	}

	r.gatherGraphEvidence(set)

	if set.GraphTriples < r.config.FallbackFloor && r.docs != nil {
		r.gatherDocumentEvidence(ctx, set)
	}

	total := float64(set.GraphTriples)*r.config.GraphWeight +
		float64(set.DocumentMatches)*r.config.DocWeight
	set.Confidence = confidence(total)

	r.logger.Debug("question answered",
		"keywords", len(set.Keywords),
		"graph_triples", set.GraphTriples,
		"document_matches", set.DocumentMatches,
		"confidence", set.Confidence)

	return set, nil
}

// gatherGraphEvidence runs the keyword pass over the triple store,
// accumulating matched triples, entities, and relationships.
func (r *Reasoner) gatherGraphEvidence(set *EvidenceSet) {
	matched := make(map[string]int) // triple key -> evidence index
	entities := make(map[string]bool)
	relationships := make(map[string]bool)

	for _, kw := range set.Keywords {
		for _, t := range r.store.Search(kw) {
			key := t.Key()
			if idx, ok := matched[key]; ok {
				item := &set.Evidence[idx]
				item.MatchedKeywords = appendUnique(item.MatchedKeywords, kw)
				continue
			}

			prov := t.Provenance
			matched[key] = len(set.Evidence)
			set.Evidence = append(set.Evidence, EvidenceItem{
				Kind:            EvidenceGraphTriple,
				Weight:          r.config.GraphWeight,
				Provenance:      &prov,
				MatchedKeywords: []string{kw},
			})

			entities[t.Subject] = true
			if t.Object != "" {
				entities[t.Object] = true
			}
			relationships[t.Predicate] = true
		}
	}

	set.GraphTriples = len(matched)
	set.Entities = sortedKeys(entities)
	set.Relationships = sortedKeys(relationships)
}

// gatherDocumentEvidence consults the fallback source. Failures are soft:
// the answer proceeds on graph evidence alone with FallbackSkipped set.
func (r *Reasoner) gatherDocumentEvidence(ctx context.Context, set *EvidenceSet) {
	count, sources, err := r.docs.SearchKeywords(ctx, set.Keywords)
	if err != nil {
		r.logger.Warn("fallback search failed, using graph evidence only", "error", err)
		set.FallbackSkipped = true
		return
	}

	set.DocumentMatches = count
	for _, src := range sources {
		set.Evidence = append(set.Evidence, EvidenceItem{
			Kind:            EvidenceDocumentMatch,
			Weight:          r.config.DocWeight,
			Path:            src,
			MatchedKeywords: set.Keywords,
		})
	}
}

// confidence maps total weighted evidence to [0,1].
// The logarithmic form separates low evidence counts (3 -> ~0.44,
// 20 -> ~0.83) while approaching 1 only at very high counts.
// Zero evidence is exactly 0.
func confidence(totalEvidence float64) float64 {
	if totalEvidence <= 0 {
		return 0
	}
	c := math.Log(totalEvidence+1) / math.Log(totalEvidence+20)
	return math.Min(1, math.Max(0, c))
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
