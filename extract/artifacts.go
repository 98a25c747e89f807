package extract

import "strings"

// Artifacts holds each pipeline stage's textual output for one run. The
// validator's gap analysis checks keyword presence per stage to locate
// where content needed by a failing scenario was lost.
type Artifacts struct {
	// RunID identifies the producing extraction run.
	RunID string `json:"run_id"`

	// Raw is the concatenated raw source text.
	Raw string `json:"-"`

	// Intermediate is the statement-level intermediate representation.
	Intermediate string `json:"-"`

	// Anchors is the anchor-extraction output.
	Anchors string `json:"-"`

	// Graph is the final graph surface text.
	Graph string `json:"-"`
}

// StageName identifies a pipeline stage.
type StageName string

// Pipeline stages in order.
const (
	StageRaw          StageName = "raw"
	StageIntermediate StageName = "intermediate"
	StageAnchors      StageName = "anchors"
	StageGraph        StageName = "graph"
)

// Stages returns the stage surfaces in pipeline order.
func (a *Artifacts) Stages() []struct {
	Name StageName
	Text string
} {
	return []struct {
		Name StageName
		Text string
	}{
		{StageRaw, a.Raw},
		{StageIntermediate, a.Intermediate},
		{StageAnchors, a.Anchors},
		{StageGraph, a.Graph},
	}
}

// KeywordOverlap returns the fraction of keywords present in the stage
// text (case-insensitive substring). Zero keywords yield zero overlap.
func KeywordOverlap(stageText string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lowered := strings.ToLower(stageText)
	found := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}
