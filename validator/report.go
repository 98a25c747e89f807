package validator

import (
	"time"

	"github.com/c360studio/catchfish/reasoner"
	"github.com/c360studio/catchfish/scenario"
)

// TestResult records one scenario's validation outcome. Immutable once
// created; a new suite run produces new results, never updates old ones.
type TestResult struct {
	// ID is the stable scenario identifier (feature/scenario).
	ID string `json:"id"`

	// Scenario is the validated scenario.
	Scenario scenario.Scenario `json:"scenario"`

	// Question is the formulated natural-language question.
	Question string `json:"question"`

	// Keywords are the question keywords the reasoner extracted.
	Keywords []string `json:"keywords,omitempty"`

	// Confidence is the reasoner's [0,1] support score.
	Confidence float64 `json:"confidence"`

	// Evidence holds the supporting evidence items.
	Evidence []reasoner.EvidenceItem `json:"evidence"`

	// Passed reports whether confidence reached the threshold.
	Passed bool `json:"passed"`

	// Timestamp is when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Gap diagnoses where in the extraction pipeline a failing scenario's
// content was lost.
type Gap struct {
	// ScenarioID identifies the failing scenario.
	ScenarioID string `json:"scenario_id"`

	// Kind is the diagnosed gap category.
	Kind GapKind `json:"kind"`

	// Keywords are the scenario keywords the diagnosis checked.
	Keywords []string `json:"keywords,omitempty"`
}

// CoverageReport aggregates one full suite run.
type CoverageReport struct {
	// Total is the number of scenarios run.
	Total int `json:"total"`

	// Passed is the number of passing scenarios.
	Passed int `json:"passed"`

	// PassRate is Passed/Total, zero for an empty suite.
	PassRate float64 `json:"pass_rate"`

	// AvgConfidence is the mean confidence over all results.
	AvgConfidence float64 `json:"avg_confidence"`

	// Threshold is the pass threshold the run used.
	Threshold float64 `json:"threshold"`

	// Converged reports whether the orchestrator's quality gate was met.
	// Set by the orchestrator, not by the suite run itself.
	Converged bool `json:"converged"`

	// Results holds every scenario result, in suite input order.
	Results []TestResult `json:"results"`

	// Failures lists failing scenario IDs, in suite input order.
	Failures []string `json:"failures,omitempty"`

	// Gaps holds one diagnosis per failing scenario, in suite input order.
	Gaps []Gap `json:"gaps,omitempty"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// GapHints returns the deduplicated keywords of all diagnosed gaps, in
// report order. These feed the next extraction cycle.
func (r *CoverageReport) GapHints() []string {
	var hints []string
	seen := make(map[string]bool)
	for _, gap := range r.Gaps {
		for _, kw := range gap.Keywords {
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			hints = append(hints, kw)
		}
	}
	return hints
}
