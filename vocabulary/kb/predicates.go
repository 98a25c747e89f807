// Package kb provides vocabulary predicates for extracted knowledge graph
// facts. Predicates follow semstreams three-level dotted notation and are
// registered in init() with IRI mappings for RDF export.
package kb

import (
	"github.com/c360studio/semstreams/vocabulary"

	"github.com/c360studio/catchfish/triple"
)

// Namespace is the IRI namespace for catchfish knowledge-base predicates.
const Namespace = "https://c360studio.github.io/catchfish/kb#"

// Relation predicates produced by the extraction pipeline.
const (
	// RelationIsA links an entity to its kind. Pattern: "X is Y".
	RelationIsA = "kb.relation.is_a"

	// RelationHas links an entity to a part or attribute. Pattern: "X has Y".
	RelationHas = "kb.relation.has"

	// RelationRequires links an entity to a prerequisite.
	// Pattern: "X requires Y" / "X needs Y".
	RelationRequires = "kb.relation.requires"

	// RelationRelatedTo links two domain terms co-occurring in one statement.
	RelationRelatedTo = "kb.relation.related_to"

	// StructureHasSection links a document entity to a section entity.
	StructureHasSection = "kb.structure.has_section"

	// EntityLabel carries the display label for an entity.
	EntityLabel = triple.PredicateLabel
)

func init() {
	vocabulary.Register(RelationIsA,
		vocabulary.WithDescription("Entity kind relation extracted from copular statements"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"))

	vocabulary.Register(RelationHas,
		vocabulary.WithDescription("Part or attribute relation extracted from possessive statements"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"has"))

	vocabulary.Register(RelationRequires,
		vocabulary.WithDescription("Prerequisite relation extracted from requirement statements"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"requires"))

	vocabulary.Register(RelationRelatedTo,
		vocabulary.WithDescription("Co-occurrence relation between domain terms in one statement"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI("http://www.w3.org/2004/02/skos/core#related"))

	vocabulary.Register(StructureHasSection,
		vocabulary.WithDescription("Links a document entity to a section entity"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI("http://purl.org/dc/terms/hasPart"))

	vocabulary.Register(EntityLabel,
		vocabulary.WithDescription("Human-readable display label for an entity"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI("http://www.w3.org/2004/02/skos/core#prefLabel"))
}
