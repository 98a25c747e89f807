// Package triple provides the in-memory knowledge graph store.
// Triples are subject-predicate-object facts with mandatory provenance,
// deduplicated on exact (subject, predicate, object) match.
package triple

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// PredicateLabel is the reserved predicate carrying an entity's
// human-readable display label.
const PredicateLabel = "entity.label.preferred"

// Provenance identifies where a triple came from. Immutable once created.
type Provenance struct {
	// SourceID is the originating document identifier.
	SourceID string `json:"source_id"`

	// RunID is the extraction run that produced the triple.
	RunID string `json:"run_id"`

	// Timestamp is when the triple was extracted.
	Timestamp time.Time `json:"timestamp"`
}

// IsZero reports whether the provenance carries no reference at all.
func (p Provenance) IsZero() bool {
	return p.SourceID == "" && p.RunID == ""
}

// Triple is a single subject-predicate-object fact in the knowledge graph.
type Triple struct {
	Subject    string     `json:"subject"`
	Predicate  string     `json:"predicate"`
	Object     string     `json:"object"`
	Provenance Provenance `json:"provenance"`
}

// Key returns the deduplication key for the triple.
func (t Triple) Key() string {
	return t.Subject + "\x1f" + t.Predicate + "\x1f" + t.Object
}

// MatchMode selects how pattern fields are compared against triple fields.
type MatchMode int

const (
	// MatchExact compares fields exactly. Used for structural traversal.
	MatchExact MatchMode = iota

	// MatchContains performs case-insensitive substring comparison.
	// Used for keyword lookup.
	MatchContains
)

// Pattern describes a triple query. Empty fields act as wildcards.
type Pattern struct {
	Subject   string
	Predicate string
	Object    string
	Mode      MatchMode
}

// Store holds the knowledge graph. Insertion is serialized behind a single
// writer lock; queries are pure reads and may run concurrently.
type Store struct {
	mu      sync.RWMutex
	triples []Triple
	keys    map[string]struct{}
}

// NewStore creates an empty triple store.
func NewStore() *Store {
	return &Store{
		keys: make(map[string]struct{}),
	}
}

// Insert adds a triple to the store.
// It returns ErrInvalidTriple when the subject or predicate is empty or the
// provenance is missing, and ErrDuplicateTriple when an identical
// (subject, predicate, object) fact already exists. Duplicates keep the
// first insertion's provenance.
func (s *Store) Insert(t Triple) error {
	if strings.TrimSpace(t.Subject) == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidTriple)
	}
	if strings.TrimSpace(t.Predicate) == "" {
		return fmt.Errorf("%w: empty predicate", ErrInvalidTriple)
	}
	if t.Provenance.IsZero() {
		return fmt.Errorf("%w: missing provenance", ErrInvalidTriple)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.Key()
	if _, ok := s.keys[key]; ok {
		return fmt.Errorf("%w: %s %s %s", ErrDuplicateTriple, t.Subject, t.Predicate, t.Object)
	}
	s.keys[key] = struct{}{}
	s.triples = append(s.triples, t)
	return nil
}

// Query returns all triples matching the pattern, in insertion order.
func (s *Store) Query(p Pattern) []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Triple
	for _, t := range s.triples {
		if matchField(t.Subject, p.Subject, p.Mode) &&
			matchField(t.Predicate, p.Predicate, p.Mode) &&
			matchField(t.Object, p.Object, p.Mode) {
			out = append(out, t)
		}
	}
	return out
}

// Search returns triples whose subject, predicate, or object contains the
// keyword (case-insensitive). This is the lookup mode used by the reasoner.
func (s *Store) Search(keyword string) []Triple {
	if keyword == "" {
		return nil
	}
	kw := strings.ToLower(keyword)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Triple
	for _, t := range s.triples {
		if strings.Contains(strings.ToLower(t.Subject), kw) ||
			strings.Contains(strings.ToLower(t.Predicate), kw) ||
			strings.Contains(strings.ToLower(t.Object), kw) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of triples in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

// All returns a copy of every triple in insertion order, for export.
func (s *Store) All() []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Triple, len(s.triples))
	copy(out, s.triples)
	return out
}

// Label returns the display label for an entity, or the entity identifier
// itself when no label triple exists.
func (s *Store) Label(entity string) string {
	for _, t := range s.Query(Pattern{Subject: entity, Predicate: PredicateLabel}) {
		if t.Object != "" {
			return t.Object
		}
	}
	return entity
}

func matchField(value, want string, mode MatchMode) bool {
	if want == "" {
		return true
	}
	if mode == MatchContains {
		return strings.Contains(strings.ToLower(value), strings.ToLower(want))
	}
	return value == want
}
