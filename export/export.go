// Package export serializes knowledge graph triples with provenance to
// standard RDF formats for external graph tooling.
package export

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/vocabulary/kb"
)

// EntityNamespace is the IRI base for exported entities.
const EntityNamespace = "https://c360studio.github.io/catchfish/entity/"

// RunNamespace is the IRI base for extraction run activities.
const RunNamespace = "https://c360studio.github.io/catchfish/run/"

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// ParseFormat resolves a format name, accepting common file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "nt":
		return FormatNTriples, nil
	case "jsonld", "json-ld", "json":
		return FormatJSONLD, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Exporter serializes triples grouped by subject, each subject carrying
// PROV-O provenance from its first triple.
type Exporter struct {
	subjects []string
	entities map[string][]triple.Triple
	prefixes map[string]string
}

// NewExporter creates an empty exporter.
func NewExporter() *Exporter {
	return &Exporter{
		entities: make(map[string][]triple.Triple),
		prefixes: defaultPrefixes(),
	}
}

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs":   "http://www.w3.org/2000/01/rdf-schema#",
		"xsd":    "http://www.w3.org/2001/XMLSchema#",
		"skos":   "http://www.w3.org/2004/02/skos/core#",
		"prov":   "http://www.w3.org/ns/prov#",
		"kb":     kb.Namespace,
		"entity": EntityNamespace,
	}
}

// Add registers triples for export.
func (e *Exporter) Add(triples ...triple.Triple) {
	for _, t := range triples {
		if _, ok := e.entities[t.Subject]; !ok {
			e.subjects = append(e.subjects, t.Subject)
		}
		e.entities[t.Subject] = append(e.entities[t.Subject], t)
	}
}

// Export serializes all registered triples to the specified format.
func (e *Exporter) Export(format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return e.toTurtle(), nil
	case FormatNTriples:
		return e.toNTriples(), nil
	case FormatJSONLD:
		return e.toJSONLD()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// statement is one flattened export statement: either a source triple or a
// provenance assertion derived from it.
type statement struct {
	subjectIRI   string
	predicateIRI string
	object       object
}

type object struct {
	iri      string
	literal  string
	datatype string
}

func iriObject(iri string) object     { return object{iri: iri} }
func literalObject(s string) object   { return object{literal: s} }
func typedObject(s, dt string) object { return object{literal: s, datatype: dt} }

// statements flattens every entity into export statements, subject
// provenance appended after the subject's own triples.
func (e *Exporter) statements() []statement {
	var out []statement
	for _, subject := range e.subjects {
		triples := e.entities[subject]
		subjectIRI := entityIRI(subject)

		for _, t := range triples {
			out = append(out, statement{
				subjectIRI:   subjectIRI,
				predicateIRI: predicateIRI(t.Predicate),
				object:       objectTerm(t.Object),
			})
		}

		prov := triples[0].Provenance
		if prov.SourceID != "" {
			out = append(out, statement{
				subjectIRI:   subjectIRI,
				predicateIRI: "http://www.w3.org/ns/prov#wasDerivedFrom",
				object:       iriObject(entityIRI(prov.SourceID)),
			})
		}
		if prov.RunID != "" {
			out = append(out, statement{
				subjectIRI:   subjectIRI,
				predicateIRI: "http://www.w3.org/ns/prov#wasGeneratedBy",
				object:       iriObject(RunNamespace + url.PathEscape(prov.RunID)),
			})
		}
		if !prov.Timestamp.IsZero() {
			out = append(out, statement{
				subjectIRI:   subjectIRI,
				predicateIRI: "http://www.w3.org/ns/prov#generatedAtTime",
				object: typedObject(prov.Timestamp.UTC().Format(time.RFC3339),
					"http://www.w3.org/2001/XMLSchema#dateTime"),
			})
		}
	}
	return out
}

// toTurtle serializes to Turtle format.
func (e *Exporter) toTurtle() string {
	var sb strings.Builder

	prefixes := make([]string, 0, len(e.prefixes))
	for prefix := range e.prefixes {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, e.prefixes[prefix]))
	}
	sb.WriteString("\n")

	statements := e.statements()
	for i, st := range statements {
		first := i == 0 || statements[i-1].subjectIRI != st.subjectIRI
		last := i == len(statements)-1 || statements[i+1].subjectIRI != st.subjectIRI

		if first {
			sb.WriteString(fmt.Sprintf("<%s>\n", st.subjectIRI))
		}
		sb.WriteString(fmt.Sprintf("    <%s> %s", st.predicateIRI, st.object.turtle()))
		if last {
			sb.WriteString(" .\n\n")
		} else {
			sb.WriteString(" ;\n")
		}
	}

	return sb.String()
}

// toNTriples serializes to N-Triples format.
func (e *Exporter) toNTriples() string {
	var sb strings.Builder
	for _, st := range e.statements() {
		sb.WriteString(fmt.Sprintf("<%s> <%s> %s .\n",
			st.subjectIRI, st.predicateIRI, st.object.ntriples()))
	}
	return sb.String()
}

// toJSONLD serializes to JSON-LD format.
func (e *Exporter) toJSONLD() (string, error) {
	graph := make([]map[string]any, 0, len(e.subjects))
	for _, subject := range e.subjects {
		node := map[string]any{"@id": entityIRI(subject)}
		for _, st := range e.statements() {
			if st.subjectIRI != node["@id"] {
				continue
			}
			node[st.predicateIRI] = appendJSONValue(node[st.predicateIRI], st.object.jsonld())
		}
		graph = append(graph, node)
	}

	doc := map[string]any{
		"@context": e.prefixes,
		"@graph":   graph,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON-LD: %w", err)
	}
	return string(data) + "\n", nil
}

// appendJSONValue accumulates repeated predicate values into an array.
func appendJSONValue(existing any, value any) any {
	switch v := existing.(type) {
	case nil:
		return value
	case []any:
		return append(v, value)
	default:
		return []any{v, value}
	}
}

func (o object) turtle() string {
	switch {
	case o.iri != "":
		return fmt.Sprintf("<%s>", o.iri)
	case o.datatype != "":
		return fmt.Sprintf("%q^^<%s>", o.literal, o.datatype)
	default:
		return fmt.Sprintf("%q", o.literal)
	}
}

func (o object) ntriples() string {
	return o.turtle()
}

func (o object) jsonld() any {
	switch {
	case o.iri != "":
		return map[string]any{"@id": o.iri}
	case o.datatype != "":
		return map[string]any{"@value": o.literal, "@type": o.datatype}
	default:
		return o.literal
	}
}

// objectTerm decides whether an object string is an entity reference or a
// plain literal. Dotted space-free identifiers are treated as references.
func objectTerm(obj string) object {
	if strings.HasPrefix(obj, "http://") || strings.HasPrefix(obj, "https://") {
		return iriObject(obj)
	}
	if strings.Contains(obj, ".") && !strings.Contains(obj, " ") && len(strings.Split(obj, ".")) >= 3 {
		return iriObject(entityIRI(obj))
	}
	return literalObject(obj)
}

// entityIRI converts an entity identifier to an IRI under the entity
// namespace. Identifiers are opaque strings, so they are path-escaped
// rather than parsed.
func entityIRI(id string) string {
	return EntityNamespace + url.PathEscape(id)
}

// predicateIRI maps internal predicate names to IRIs. The label predicate
// maps to skos:prefLabel; kb predicates map into the kb namespace.
func predicateIRI(predicate string) string {
	if predicate == triple.PredicateLabel {
		return "http://www.w3.org/2004/02/skos/core#prefLabel"
	}
	if strings.HasPrefix(predicate, "kb.") {
		parts := strings.Split(predicate, ".")
		return kb.Namespace + parts[len(parts)-1]
	}
	return EntityNamespace + url.PathEscape(predicate)
}
