package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/vocabulary/kb"
)

func exportTriples() []triple.Triple {
	prov := triple.Provenance{
		SourceID:  "doc.runbook.a1b2c3d4",
		RunID:     "run-abc12345",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	return []triple.Triple{
		{Subject: "rollback", Predicate: kb.RelationRequires, Object: "database snapshot", Provenance: prov},
		{Subject: "rollback", Predicate: kb.RelationIsA, Object: "recovery operation", Provenance: prov},
		{Subject: "kb.section.rollback", Predicate: kb.EntityLabel, Object: "Rollback", Provenance: prov},
	}
}

func newExporter() *Exporter {
	e := NewExporter()
	e.Add(exportTriples()...)
	return e
}

func TestExportTurtle(t *testing.T) {
	out, err := newExporter().Export(FormatTurtle)
	require.NoError(t, err)

	assert.Contains(t, out, "@prefix prov: <http://www.w3.org/ns/prov#> .")
	assert.Contains(t, out, "@prefix kb: <"+kb.Namespace+"> .")
	assert.Contains(t, out, "<"+EntityNamespace+"rollback>")
	assert.Contains(t, out, "<"+kb.Namespace+"requires> \"database snapshot\"")
	assert.Contains(t, out, "skos/core#prefLabel> \"Rollback\"")
	assert.Contains(t, out, "prov#wasDerivedFrom> <"+EntityNamespace+"doc.runbook.a1b2c3d4>")
	assert.Contains(t, out, "prov#wasGeneratedBy> <"+RunNamespace+"run-abc12345>")
	assert.Contains(t, out, `"2026-03-01T12:00:00Z"^^<http://www.w3.org/2001/XMLSchema#dateTime>`)
}

func TestExportNTriples(t *testing.T) {
	out, err := newExporter().Export(FormatNTriples)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// 3 source triples plus 3 provenance statements per subject.
	assert.Len(t, lines, 9)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " ."), "line %q", line)
		assert.True(t, strings.HasPrefix(line, "<"), "line %q", line)
	}
	assert.Contains(t, out,
		"<"+EntityNamespace+"rollback> <"+kb.Namespace+"is_a> \"recovery operation\" .")
}

func TestExportJSONLD(t *testing.T) {
	out, err := newExporter().Export(FormatJSONLD)
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(out)))

	var doc struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, kb.Namespace, doc.Context["kb"])
	require.Len(t, doc.Graph, 2)
	assert.Equal(t, EntityNamespace+"rollback", doc.Graph[0]["@id"])
	assert.Contains(t, doc.Graph[0], "http://www.w3.org/ns/prov#wasGeneratedBy")
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := newExporter().Export(Format("rdfxml"))
	require.Error(t, err)
}

func TestExportEmpty(t *testing.T) {
	out, err := NewExporter().Export(FormatNTriples)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"turtle":  FormatTurtle,
		".ttl":    FormatTurtle,
		"nt":      FormatNTriples,
		"jsonld":  FormatJSONLD,
		"JSON-LD": FormatJSONLD,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseFormat("rdfxml")
	require.Error(t, err)
}

func TestObjectTermEntityReference(t *testing.T) {
	ref := objectTerm("kb.section.rollback-procedure")
	assert.Equal(t, EntityNamespace+"kb.section.rollback-procedure", ref.iri)

	lit := objectTerm("a database snapshot")
	assert.Empty(t, lit.iri)
	assert.Equal(t, "a database snapshot", lit.literal)
}
