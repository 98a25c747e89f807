package validator

import "github.com/c360studio/catchfish/extract"

// GapKind categorizes where in the extraction pipeline a failing
// scenario's content was lost.
type GapKind string

const (
	// GapContent means the keywords are absent even from raw source.
	// New source material is needed.
	GapContent GapKind = "content"

	// GapExtraction means raw source had the keywords but the
	// intermediate representation lost them.
	GapExtraction GapKind = "extraction"

	// GapAnchoring means the intermediate representation had the keywords
	// but no graph-ready anchors were produced from them.
	GapAnchoring GapKind = "anchoring"

	// GapGraphConstruction means anchors existed but the final graph does
	// not carry the keywords.
	GapGraphConstruction GapKind = "graph_construction"
)

// nearZeroOverlap is the keyword overlap fraction below which a stage is
// considered to have dropped the content.
const nearZeroOverlap = 0.25

// stageGaps maps each pipeline stage to the gap kind diagnosed when that
// stage is the first to drop the keywords.
var stageGaps = map[extract.StageName]GapKind{
	extract.StageRaw:          GapContent,
	extract.StageIntermediate: GapExtraction,
	extract.StageAnchors:      GapAnchoring,
	extract.StageGraph:        GapGraphConstruction,
}

// ClassifyGap locates the first pipeline stage whose artifact has near-zero
// overlap with the scenario keywords. The diagnosis names a stage, not a
// proven root cause; it directs attention for the next cycle.
// Deterministic for fixed artifacts and keywords.
func ClassifyGap(artifacts *extract.Artifacts, keywords []string) GapKind {
	if artifacts == nil {
		return GapContent
	}
	for _, stage := range artifacts.Stages() {
		if extract.KeywordOverlap(stage.Text, keywords) < nearZeroOverlap {
			return stageGaps[stage.Name]
		}
	}

	// Every stage carries the keywords, yet confidence stayed below
	// threshold. The graph holds the terms without enough connecting
	// triples, which is a construction problem.
	return GapGraphConstruction
}
