package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_FeatureAndScenarioName(t *testing.T) {
	q := Question(Scenario{
		Feature: "Deployment safety",
		Name:    "Rollback after a failed release",
	})
	assert.Equal(t, "Deployment safety Rollback after a failed release", q)
}

func TestQuestion_AppendsQuotedEntities(t *testing.T) {
	q := Question(Scenario{
		Feature: "Deployment safety",
		Name:    "Rollback after a failed release",
		Steps: []string{
			`Given a deployment of "payments-api"`,
			`When the health check for "payments-api" fails`,
			`Then the "rollback procedure" is executed`,
		},
	})
	assert.Equal(t,
		"Deployment safety Rollback after a failed release involving payments-api, rollback procedure",
		q)
}

func TestQuestion_Deterministic(t *testing.T) {
	sc := Scenario{
		Feature: "Clinical guidance",
		Name:    "First-line treatment",
		Steps:   []string{`Given a patient starting "metformin"`},
	}
	first := Question(sc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Question(sc))
	}
}

const featureSource = `@knowledge
Feature: Deployment safety

  Background:
    Given a configured pipeline

  @rollback
  Scenario: Rollback after a failed release
    Given a deployment of "payments-api"
    When the health check fails
    Then the "rollback procedure" is executed

  Scenario: Change window approval
    Given a pending release
    Then an approval is required
`

func TestParse_Feature(t *testing.T) {
	scenarios, err := Parse(strings.NewReader(featureSource))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	first := scenarios[0]
	assert.Equal(t, "Deployment safety", first.Feature)
	assert.Equal(t, "Rollback after a failed release", first.Name)
	assert.Equal(t, []string{
		`a deployment of "payments-api"`,
		"the health check fails",
		`the "rollback procedure" is executed`,
	}, first.Steps)
	assert.Equal(t, []string{"knowledge", "rollback"}, first.Tags)

	second := scenarios[1]
	assert.Equal(t, "Change window approval", second.Name)
	assert.Equal(t, []string{"knowledge"}, second.Tags)
}

func TestParse_InvalidGherkin(t *testing.T) {
	_, err := Parse(strings.NewReader("Feature: one\nFeature: two\n"))
	require.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "deploy.feature"), []byte(featureSource), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "notes.md"), []byte("not a feature"), 0o644))

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)
}
