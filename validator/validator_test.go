package validator

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/catchfish/extract"
	"github.com/c360studio/catchfish/reasoner"
	"github.com/c360studio/catchfish/scenario"
	"github.com/c360studio/catchfish/triple"
)

func storeWithTriples(t *testing.T, subject string, n int) *triple.Store {
	t.Helper()
	store := triple.NewStore()
	for i := 0; i < n; i++ {
		err := store.Insert(triple.Triple{
			Subject:   subject,
			Predicate: "kb.relation.has",
			Object:    fmt.Sprintf("attribute-%d", i),
			Provenance: triple.Provenance{
				SourceID:  "doc.test",
				RunID:     "run-test",
				Timestamp: time.Now().UTC(),
			},
		})
		require.NoError(t, err)
	}
	return store
}

func newRunner(t *testing.T, store *triple.Store, cfg Config) *Runner {
	t.Helper()
	r, err := reasoner.New(store, nil, nil, reasoner.DefaultConfig())
	require.NoError(t, err)
	runner, err := New(r, nil, cfg)
	require.NoError(t, err)
	return runner
}

func TestRunSuiteAggregation(t *testing.T) {
	store := storeWithTriples(t, "metformin", 20)
	runner := newRunner(t, store, DefaultConfig())

	scenarios := []scenario.Scenario{
		{Feature: "Clinical dosing", Name: "Metformin first line"},
		{Feature: "Qqqx zzzv", Name: "Unknowable topic"},
	}

	report, err := runner.RunSuite(context.Background(), scenarios)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 0.5, report.PassRate)
	assert.Equal(t, 0.5, report.Threshold)
	assert.Positive(t, report.AvgConfidence)
	assert.False(t, report.Converged)

	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Passed)
	assert.False(t, report.Results[1].Passed)
	assert.NotEmpty(t, report.Results[0].Evidence)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Qqqx zzzv/Unknowable topic", report.Failures[0])

	require.Len(t, report.Gaps, 1)
	assert.Equal(t, GapContent, report.Gaps[0].Kind)
}

func TestRunSuiteThresholdBoundaryPasses(t *testing.T) {
	store := storeWithTriples(t, "metformin", 3)
	threshold := math.Log(4) / math.Log(23)
	runner := newRunner(t, store, Config{Threshold: threshold})

	report, err := runner.RunSuite(context.Background(), []scenario.Scenario{
		{Feature: "Metformin", Name: "Coverage"},
	})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, threshold, report.Results[0].Confidence)
	assert.True(t, report.Results[0].Passed)
}

func TestRunSuiteKeepsInputOrder(t *testing.T) {
	store := storeWithTriples(t, "metformin", 5)
	runner := newRunner(t, store, DefaultConfig())

	var scenarios []scenario.Scenario
	for i := 0; i < 16; i++ {
		scenarios = append(scenarios, scenario.Scenario{
			Feature: "Ordering",
			Name:    fmt.Sprintf("case-%02d", i),
		})
	}

	report, err := runner.RunSuite(context.Background(), scenarios)
	require.NoError(t, err)
	require.Len(t, report.Results, len(scenarios))
	for i, result := range report.Results {
		assert.Equal(t, scenarios[i].ID(), result.ID)
	}
}

func TestRunSuiteEmpty(t *testing.T) {
	runner := newRunner(t, triple.NewStore(), DefaultConfig())

	report, err := runner.RunSuite(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, report.Total)
	assert.Zero(t, report.PassRate)
	assert.Zero(t, report.AvgConfidence)
	assert.Empty(t, report.Failures)
}

func TestRunSuiteCancelled(t *testing.T) {
	runner := newRunner(t, triple.NewStore(), DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunSuite(ctx, []scenario.Scenario{{Feature: "F", Name: "S"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Threshold: 0}.Validate())
	assert.NoError(t, Config{Threshold: 1}.Validate())
	assert.Error(t, Config{Threshold: -0.1}.Validate())
	assert.Error(t, Config{Threshold: 1.1}.Validate())
}

func TestClassifyGapStages(t *testing.T) {
	keywords := []string{"rollback", "snapshot"}
	text := "the rollback needs a snapshot"

	tests := []struct {
		name      string
		artifacts *extract.Artifacts
		want      GapKind
	}{
		{"absent everywhere", &extract.Artifacts{}, GapContent},
		{"raw only", &extract.Artifacts{Raw: text}, GapExtraction},
		{"raw and intermediate", &extract.Artifacts{Raw: text, Intermediate: text}, GapAnchoring},
		{"lost at graph construction", &extract.Artifacts{Raw: text, Intermediate: text, Anchors: text}, GapGraphConstruction},
		{"present everywhere", &extract.Artifacts{Raw: text, Intermediate: text, Anchors: text, Graph: text}, GapGraphConstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGap(tt.artifacts, keywords))
		})
	}
}

func TestClassifyGapNilArtifacts(t *testing.T) {
	assert.Equal(t, GapContent, ClassifyGap(nil, []string{"rollback"}))
}

func TestClassifyGapNearZeroBoundary(t *testing.T) {
	keywords := []string{"alpha", "beta", "gamma", "delta"}

	// One of four keywords present is exactly the overlap cutoff; the
	// stage is still considered to carry the content.
	quarter := &extract.Artifacts{Raw: "alpha notes", Intermediate: "alpha", Anchors: "alpha", Graph: "alpha"}
	assert.Equal(t, GapGraphConstruction, ClassifyGap(quarter, keywords))

	empty := &extract.Artifacts{Raw: "unrelated"}
	assert.Equal(t, GapContent, ClassifyGap(empty, keywords))
}

func TestClassifyGapDeterministic(t *testing.T) {
	artifacts := &extract.Artifacts{Raw: "rollback snapshot", Intermediate: "rollback snapshot"}
	keywords := []string{"rollback", "snapshot"}

	first := ClassifyGap(artifacts, keywords)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyGap(artifacts, keywords))
	}
}

func TestGapHintsDeduplicated(t *testing.T) {
	report := &CoverageReport{Gaps: []Gap{
		{ScenarioID: "a", Kind: GapContent, Keywords: []string{"rollback", "snapshot"}},
		{ScenarioID: "b", Kind: GapAnchoring, Keywords: []string{"snapshot", "deployment"}},
	}}
	assert.Equal(t, []string{"rollback", "snapshot", "deployment"}, report.GapHints())
}
