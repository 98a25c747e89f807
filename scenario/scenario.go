// Package scenario provides BDD scenario types, Gherkin feature file
// loading, and question formulation for the validation suite.
package scenario

import (
	"regexp"
	"strings"
)

// quotedRe matches double-quoted substrings in step text. These typically
// name the concrete entities under test.
var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// Scenario is a single behavior-driven scenario. Immutable after creation.
type Scenario struct {
	// Feature is the enclosing feature name.
	Feature string `json:"feature"`

	// Name is the scenario name.
	Name string `json:"name"`

	// Steps holds the step text in order, without Gherkin keywords.
	Steps []string `json:"steps"`

	// Tags holds scenario tags without the leading "@".
	Tags []string `json:"tags,omitempty"`
}

// ID returns a stable identifier combining feature and scenario name.
func (s Scenario) ID() string {
	return s.Feature + "/" + s.Name
}

// Question converts a scenario into a natural-language question string.
// The result is the feature name plus the scenario name, with any quoted
// entities from the step text appended as "involving X, Y".
// Deterministic: the same scenario always yields the same question.
func Question(s Scenario) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Feature))
	if s.Name != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(s.Name))
	}

	var entities []string
	seen := make(map[string]bool)
	for _, step := range s.Steps {
		for _, m := range quotedRe.FindAllStringSubmatch(step, -1) {
			entity := strings.TrimSpace(m[1])
			if entity == "" || seen[entity] {
				continue
			}
			seen[entity] = true
			entities = append(entities, entity)
		}
	}
	if len(entities) > 0 {
		b.WriteString(" involving ")
		b.WriteString(strings.Join(entities, ", "))
	}

	return b.String()
}
