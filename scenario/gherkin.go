package scenario

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin-go/v19"
	messages "github.com/cucumber/messages-go/v16"
)

// Parse reads Gherkin source and returns its scenarios. Only the feature
// name, scenario names, step text, and tags are consumed; Gherkin keywords
// and backgrounds are ignored.
func Parse(r io.Reader) ([]Scenario, error) {
	ids := &messages.Incrementing{}
	doc, err := gherkin.ParseGherkinDocument(r, ids.NewId)
	if err != nil {
		return nil, fmt.Errorf("parse gherkin document: %w", err)
	}
	if doc.Feature == nil {
		return nil, nil
	}

	featureTags := tagNames(doc.Feature.Tags)

	var out []Scenario
	for _, child := range doc.Feature.Children {
		if child.Scenario == nil {
			continue
		}
		sc := Scenario{
			Feature: doc.Feature.Name,
			Name:    child.Scenario.Name,
			Tags:    append(append([]string(nil), featureTags...), tagNames(child.Scenario.Tags)...),
		}
		for _, step := range child.Scenario.Steps {
			sc.Steps = append(sc.Steps, step.Text)
		}
		if len(sc.Tags) == 0 {
			sc.Tags = nil
		}
		out = append(out, sc)
	}
	return out, nil
}

// LoadFile parses a single .feature file.
func LoadFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature file: %w", err)
	}
	defer f.Close()

	scenarios, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return scenarios, nil
}

// LoadDir recursively loads all .feature files under dir, in path order.
func LoadDir(dir string) ([]Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".feature") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk scenario dir: %w", err)
	}
	sort.Strings(paths)

	var out []Scenario
	for _, path := range paths {
		scenarios, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, scenarios...)
	}
	return out, nil
}

func tagNames(tags []*messages.Tag) []string {
	var out []string
	for _, tag := range tags {
		out = append(out, strings.TrimPrefix(tag.Name, "@"))
	}
	return out
}
