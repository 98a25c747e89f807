package reasoner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/catchfish/triple"
	"github.com/c360studio/catchfish/vocabulary"
)

// fakeDocs is a controllable fallback evidence source.
type fakeDocs struct {
	count   int
	sources []string
	err     error
	calls   int
}

func (f *fakeDocs) SearchKeywords(_ context.Context, _ []string) (int, []string, error) {
	f.calls++
	return f.count, f.sources, f.err
}

func newTestReasoner(t *testing.T, store *triple.Store, docs EvidenceSource) *Reasoner {
	t.Helper()
	r, err := New(store, docs, vocabulary.Default(), DefaultConfig())
	require.NoError(t, err)
	return r
}

func insertMatching(t *testing.T, store *triple.Store, keyword string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Insert(triple.Triple{
			Subject:   fmt.Sprintf("%s-entity-%d", keyword, i),
			Predicate: "kb.relation.is_a",
			Object:    "treatment option",
			Provenance: triple.Provenance{
				SourceID:  "doc.guideline",
				RunID:     "run-1",
				Timestamp: time.Now(),
			},
		}))
	}
}

func TestAnswer_DocumentEvidenceOnly(t *testing.T) {
	// Empty graph, 5 files with 2 hits each: total = 10 x 0.3 = 3.0,
	// confidence = log(4)/log(23) ~ 0.44, below the default 0.5 threshold.
	docs := &fakeDocs{
		count:   10,
		sources: []string{"a.md", "b.md", "c.md", "d.md", "e.md"},
	}
	r := newTestReasoner(t, triple.NewStore(), docs)

	set, err := r.Answer(context.Background(), "What is the rollback procedure?")
	require.NoError(t, err)

	assert.Equal(t, 0, set.GraphTriples)
	assert.Equal(t, 10, set.DocumentMatches)
	assert.InDelta(t, 0.4421, set.Confidence, 0.01)
	assert.Len(t, set.Evidence, 5)
	for _, item := range set.Evidence {
		assert.Equal(t, EvidenceDocumentMatch, item.Kind)
		assert.Equal(t, 0.3, item.Weight)
	}
}

func TestAnswer_GraphEvidenceSkipsFallback(t *testing.T) {
	// 20 matching triples: fallback not triggered, total = 20,
	// confidence = log(21)/log(40) ~ 0.83.
	store := triple.NewStore()
	insertMatching(t, store, "metformin", 20)
	docs := &fakeDocs{count: 99}
	r := newTestReasoner(t, store, docs)

	set, err := r.Answer(context.Background(), "What is the first-line metformin treatment?")
	require.NoError(t, err)

	assert.Equal(t, 20, set.GraphTriples)
	assert.Equal(t, 0, set.DocumentMatches)
	assert.Equal(t, 0, docs.calls, "fallback must not be consulted above the floor")
	assert.InDelta(t, 0.8253, set.Confidence, 0.01)
	assert.NotEmpty(t, set.Entities)
	assert.Contains(t, set.Relationships, "kb.relation.is_a")
}

func TestAnswer_ZeroKeywords(t *testing.T) {
	docs := &fakeDocs{count: 50}
	r := newTestReasoner(t, triple.NewStore(), docs)

	set, err := r.Answer(context.Background(), "What is the how and why?")
	require.NoError(t, err)

	assert.Zero(t, set.Confidence)
	assert.Empty(t, set.Evidence)
	assert.Equal(t, 0, docs.calls)
}

func TestAnswer_ZeroEvidenceIsExactlyZero(t *testing.T) {
	r := newTestReasoner(t, triple.NewStore(), &fakeDocs{})

	set, err := r.Answer(context.Background(), "completely unknown telemetry subject")
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Confidence)
}

func TestAnswer_FallbackSoftFailure(t *testing.T) {
	store := triple.NewStore()
	insertMatching(t, store, "rollback", 1) // below the floor of 3
	docs := &fakeDocs{err: errors.New("deadline exceeded")}
	r := newTestReasoner(t, store, docs)

	set, err := r.Answer(context.Background(), "Describe the rollback steps")
	require.NoError(t, err)

	assert.True(t, set.FallbackSkipped)
	assert.Equal(t, 1, set.GraphTriples)
	assert.Greater(t, set.Confidence, 0.0)
}

func TestAnswer_Idempotent(t *testing.T) {
	store := triple.NewStore()
	insertMatching(t, store, "rollback", 5)
	r := newTestReasoner(t, store, &fakeDocs{})

	first, err := r.Answer(context.Background(), "What is the rollback procedure?")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := r.Answer(context.Background(), "What is the rollback procedure?")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnswer_MonotonicUnderRelevantTriples(t *testing.T) {
	store := triple.NewStore()
	r := newTestReasoner(t, store, &fakeDocs{})
	ctx := context.Background()

	var prev float64
	for n := 1; n <= 30; n++ {
		require.NoError(t, store.Insert(triple.Triple{
			Subject:   fmt.Sprintf("rollback-step-%d", n),
			Predicate: "kb.relation.is_a",
			Object:    "step",
			Provenance: triple.Provenance{
				SourceID: "doc.runbook", RunID: "run-1", Timestamp: time.Now(),
			},
		}))

		set, err := r.Answer(ctx, "What is the rollback procedure?")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, set.Confidence, prev)
		prev = set.Confidence
	}
}

func TestAnswer_IrrelevantTriplesDoNotChangeConfidence(t *testing.T) {
	store := triple.NewStore()
	insertMatching(t, store, "rollback", 5)
	r := newTestReasoner(t, store, &fakeDocs{})
	ctx := context.Background()

	before, err := r.Answer(ctx, "What is the rollback procedure?")
	require.NoError(t, err)

	require.NoError(t, store.Insert(triple.Triple{
		Subject:   "greenhouse",
		Predicate: "kb.relation.has",
		Object:    "tomatoes",
		Provenance: triple.Provenance{
			SourceID: "doc.garden", RunID: "run-2", Timestamp: time.Now(),
		},
	}))

	after, err := r.Answer(ctx, "What is the rollback procedure?")
	require.NoError(t, err)
	assert.Equal(t, before.Confidence, after.Confidence)
}

func TestAnswer_GraphEvidenceOutweighsDocumentEvidence(t *testing.T) {
	const n = 10

	graphStore := triple.NewStore()
	insertMatching(t, graphStore, "rollback", n)
	graphReasoner := newTestReasoner(t, graphStore, &fakeDocs{})

	docSources := make([]string, n)
	for i := range docSources {
		docSources[i] = fmt.Sprintf("doc-%d.md", i)
	}
	docReasoner := newTestReasoner(t, triple.NewStore(), &fakeDocs{count: n, sources: docSources})

	ctx := context.Background()
	fromGraph, err := graphReasoner.Answer(ctx, "What is the rollback procedure?")
	require.NoError(t, err)
	fromDocs, err := docReasoner.Answer(ctx, "What is the rollback procedure?")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, fromGraph.Confidence, fromDocs.Confidence)
}

func TestConfidence_Shape(t *testing.T) {
	assert.Equal(t, 0.0, confidence(0))
	assert.Equal(t, 0.0, confidence(-1))
	assert.InDelta(t, 0.4421, confidence(3), 0.001)
	assert.InDelta(t, 0.9933, confidence(450), 0.001)
	assert.LessOrEqual(t, confidence(1e9), 1.0)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{FallbackFloor: -1, GraphWeight: 1, DocWeight: 0.3}.Validate())
	assert.Error(t, Config{FallbackFloor: 3, GraphWeight: 0, DocWeight: 0.3}.Validate())
	assert.Error(t, Config{FallbackFloor: 3, GraphWeight: 1, DocWeight: 0}.Validate())
}

func TestAnswer_CancelledContext(t *testing.T) {
	r := newTestReasoner(t, triple.NewStore(), &fakeDocs{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Answer(ctx, "anything")
	assert.Error(t, err)
}
