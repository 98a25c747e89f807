package extract

import (
	"regexp"
	"strings"

	"github.com/c360studio/catchfish/vocabulary/kb"
)

// Relation patterns, most specific first. Subjects are clamped to a few
// words so list prose does not produce sprawling entity identifiers.
var relationPatterns = []struct {
	re        *regexp.Regexp
	predicate string
}{
	{regexp.MustCompile(`(?i)^(.{2,80}?)\s+(?:requires?|needs?|depends\s+on)\s+(.{2,120})$`), kb.RelationRequires},
	{regexp.MustCompile(`(?i)^(.{2,80}?)\s+(?:has|have|contains?|includes?)\s+(.{2,120})$`), kb.RelationHas},
	{regexp.MustCompile(`(?i)^(.{2,80}?)\s+(?:is|are)\s+(?:an?\s+|the\s+)?(.{2,120})$`), kb.RelationIsA},
}

const maxSubjectWords = 6

// anchorStatement produces the graph-ready anchors for one statement:
// section structure, lexical relation patterns, and hint co-occurrence.
func (p *Pipeline) anchorStatement(st statement, hints []string) []Anchor {
	var anchors []Anchor

	// Section statements become labeled section entities.
	if st.Section != "" && st.Text == st.Section {
		sectionID := sectionEntityID(st.Section)
		anchors = append(anchors,
			Anchor{Subject: st.SourceID, Predicate: kb.StructureHasSection, Object: sectionID, SourceID: st.SourceID},
			Anchor{Subject: sectionID, Predicate: kb.EntityLabel, Object: st.Section, SourceID: st.SourceID},
		)
		return anchors
	}

	for _, pattern := range relationPatterns {
		m := pattern.re.FindStringSubmatch(st.Text)
		if m == nil {
			continue
		}
		subject := cleanTerm(m[1])
		object := cleanTerm(m[2])
		if subject == "" || object == "" || len(strings.Fields(subject)) > maxSubjectWords {
			continue
		}
		anchors = append(anchors, Anchor{
			Subject:   subject,
			Predicate: pattern.predicate,
			Object:    object,
			SourceID:  st.SourceID,
		})
		break
	}

	anchors = append(anchors, p.hintAnchors(st, hints)...)
	return anchors
}

// hintAnchors emits co-occurrence anchors for statements mentioning a gap
// hint, linking the hint to the other domain terms of the statement.
func (p *Pipeline) hintAnchors(st statement, hints []string) []Anchor {
	if len(hints) == 0 {
		return nil
	}

	lowered := strings.ToLower(st.Text)
	var anchors []Anchor
	for _, hint := range hints {
		hint = strings.ToLower(strings.TrimSpace(hint))
		if hint == "" || !strings.Contains(lowered, hint) {
			continue
		}

		related := 0
		for _, kw := range p.extractor.Keywords(st.Text) {
			if kw == hint || related >= maxHintRelations {
				continue
			}
			anchors = append(anchors, Anchor{
				Subject:   hint,
				Predicate: kb.RelationRelatedTo,
				Object:    kw,
				SourceID:  st.SourceID,
			})
			related++
		}
	}
	return anchors
}

// cleanTerm normalizes an anchor term: surrounding punctuation and
// markdown emphasis stripped, inner whitespace collapsed.
func cleanTerm(s string) string {
	s = strings.Trim(s, " \t\"'`*_:,()[]")
	return strings.Join(strings.Fields(s), " ")
}

// sectionEntityID derives a stable entity ID from a section heading.
// Format: kb.section.<slug>
func sectionEntityID(heading string) string {
	slug := strings.ToLower(heading)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(strings.Join(strings.FieldsFunc(slug, func(r rune) bool { return r == '-' }), "-"), "-")
	return "kb.section." + slug
}
