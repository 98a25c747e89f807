package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/catchfish/source"
	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/vocabulary/kb"
)

const runbookBody = `# Rollback Procedure

The rollback procedure requires a database snapshot.
Deployment is a staged process.

## Verification

The verification checklist contains three smoke tests.
`

func runbookDoc() source.Document {
	return source.Document{
		ID:       source.GenerateID("runbook.md", []byte(runbookBody)),
		Filename: "runbook.md",
		Body:     runbookBody,
	}
}

func TestPipelineRunExtractsRelations(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)
	doc := runbookDoc()

	result, err := pipeline.Run(context.Background(), []source.Document{doc}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Documents)
	assert.Positive(t, result.Statements)
	assert.Positive(t, result.Inserted)
	assert.Zero(t, result.Duplicates)
	assert.Len(t, result.Triples, result.Inserted)
	assert.False(t, result.CompletedAt.Before(result.StartedAt))

	requires := store.Query(triple.Pattern{Predicate: kb.RelationRequires})
	require.Len(t, requires, 1)
	assert.Contains(t, requires[0].Subject, "rollback procedure")
	assert.Contains(t, requires[0].Object, "database snapshot")

	isA := store.Query(triple.Pattern{Predicate: kb.RelationIsA})
	require.Len(t, isA, 1)
	assert.Equal(t, "Deployment", isA[0].Subject)
	assert.Contains(t, isA[0].Object, "staged process")

	has := store.Query(triple.Pattern{Predicate: kb.RelationHas})
	require.Len(t, has, 1)
	assert.Contains(t, has[0].Subject, "verification checklist")
}

func TestPipelineRunStampsProvenance(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)
	doc := runbookDoc()

	result, err := pipeline.Run(context.Background(), []source.Document{doc}, nil)
	require.NoError(t, err)

	for _, tr := range store.All() {
		assert.Equal(t, doc.ID, tr.Provenance.SourceID)
		assert.Equal(t, result.RunID, tr.Provenance.RunID)
		assert.False(t, tr.Provenance.Timestamp.IsZero())
	}
}

func TestPipelineRunEmitsSectionStructure(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)
	doc := runbookDoc()

	_, err := pipeline.Run(context.Background(), []source.Document{doc}, nil)
	require.NoError(t, err)

	sections := store.Query(triple.Pattern{
		Subject:   doc.ID,
		Predicate: kb.StructureHasSection,
	})
	require.Len(t, sections, 2)
	assert.Equal(t, "kb.section.rollback-procedure", sections[0].Object)
	assert.Equal(t, "kb.section.verification", sections[1].Object)

	assert.Equal(t, "Rollback Procedure", store.Label("kb.section.rollback-procedure"))
	assert.Equal(t, "Verification", store.Label("kb.section.verification"))
}

func TestPipelineRunCountsDuplicates(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)
	docs := []source.Document{runbookDoc()}

	first, err := pipeline.Run(context.Background(), docs, nil)
	require.NoError(t, err)
	require.Positive(t, first.Inserted)

	second, err := pipeline.Run(context.Background(), docs, nil)
	require.NoError(t, err)

	assert.Zero(t, second.Inserted)
	assert.Equal(t, first.Inserted, second.Duplicates)
	assert.Equal(t, first.Inserted, store.Count())
}

func TestPipelineRunHintAnchors(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)
	docs := []source.Document{runbookDoc()}

	_, err := pipeline.Run(context.Background(), docs, []string{"rollback"})
	require.NoError(t, err)

	related := store.Query(triple.Pattern{
		Subject:   "rollback",
		Predicate: kb.RelationRelatedTo,
	})
	require.NotEmpty(t, related)
	assert.LessOrEqual(t, len(related), maxHintRelations)

	objects := make([]string, 0, len(related))
	for _, tr := range related {
		objects = append(objects, tr.Object)
	}
	assert.Contains(t, objects, "procedure")
}

func TestPipelineRunArtifacts(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)
	require.Nil(t, pipeline.Artifacts())

	result, err := pipeline.Run(context.Background(), []source.Document{runbookDoc()}, nil)
	require.NoError(t, err)

	artifacts := pipeline.Artifacts()
	require.NotNil(t, artifacts)
	assert.Equal(t, result.RunID, artifacts.RunID)

	for _, stage := range artifacts.Stages() {
		assert.NotEmpty(t, stage.Text, "stage %s", stage.Name)
		assert.Equal(t, 1.0, KeywordOverlap(stage.Text, []string{"rollback"}),
			"stage %s", stage.Name)
	}
}

func TestPipelineRunCancelled(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, []source.Document{runbookDoc()}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipelineSkipsCodeFences(t *testing.T) {
	store := triple.NewStore()
	pipeline := New(store, nil)

	body := "# Notes\n\n```\nthe fenced block is never extracted text\n```\n"
	doc := source.Document{ID: "doc.notes", Filename: "notes.md", Body: body}

	_, err := pipeline.Run(context.Background(), []source.Document{doc}, nil)
	require.NoError(t, err)

	assert.Empty(t, store.Query(triple.Pattern{Predicate: kb.RelationIsA}))
}

func TestKeywordOverlap(t *testing.T) {
	assert.Equal(t, 0.0, KeywordOverlap("anything", nil))
	assert.Equal(t, 0.0, KeywordOverlap("", []string{"rollback"}))
	assert.Equal(t, 0.5, KeywordOverlap("Rollback notes", []string{"rollback", "snapshot"}))
	assert.Equal(t, 1.0, KeywordOverlap("ROLLBACK SNAPSHOT", []string{"rollback", "snapshot"}))
}
