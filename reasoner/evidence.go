package reasoner

import "github.com/c360studio/catchfish/triple"

// EvidenceKind discriminates evidence item sources.
type EvidenceKind string

const (
	// EvidenceGraphTriple is structured evidence from the knowledge graph.
	EvidenceGraphTriple EvidenceKind = "graph_triple"

	// EvidenceDocumentMatch is unstructured evidence from fallback search.
	EvidenceDocumentMatch EvidenceKind = "document_match"
)

// EvidenceItem is a single piece of supporting evidence for an answer.
type EvidenceItem struct {
	// Kind discriminates graph triples from document matches.
	Kind EvidenceKind `json:"kind"`

	// Weight is the per-unit evidence weight applied to this item.
	Weight float64 `json:"weight"`

	// Provenance identifies the extraction source for graph evidence.
	Provenance *triple.Provenance `json:"provenance,omitempty"`

	// Path is the matched file for document evidence.
	Path string `json:"path,omitempty"`

	// MatchedKeywords lists the question keywords this item matched.
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// EvidenceSet is the full answer payload for a question.
type EvidenceSet struct {
	// Keywords are the extracted question keywords.
	Keywords []string `json:"keywords,omitempty"`

	// Entities lists every subject and object touched by graph evidence.
	Entities []string `json:"entities,omitempty"`

	// Relationships lists every predicate touched by graph evidence.
	Relationships []string `json:"relationships,omitempty"`

	// Evidence holds the supporting items, graph evidence first.
	Evidence []EvidenceItem `json:"evidence"`

	// GraphTriples is the count of matched graph triples.
	GraphTriples int `json:"graph_triples"`

	// DocumentMatches is the total document keyword hit count.
	DocumentMatches int `json:"document_matches"`

	// Confidence is the [0,1] support score. Zero evidence yields exactly 0.
	Confidence float64 `json:"confidence"`

	// FallbackSkipped is set when fallback search was wanted but soft-failed.
	FallbackSkipped bool `json:"fallback_skipped,omitempty"`
}
