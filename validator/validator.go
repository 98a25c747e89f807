// Package validator runs behavior scenarios against the reasoner and
// produces coverage reports with per-failure gap diagnosis.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360studio/catchfish/extract"
	"github.com/c360studio/catchfish/reasoner"
	"github.com/c360studio/catchfish/scenario"
)

// ArtifactSource provides the extraction artifacts gap diagnosis runs
// against. extract.Pipeline satisfies it.
type ArtifactSource interface {
	Artifacts() *extract.Artifacts
}

// Config holds validation tunables.
type Config struct {
	// Threshold is the minimum confidence for a scenario to pass.
	// A result exactly at the threshold passes.
	Threshold float64 `yaml:"threshold"`
}

// DefaultConfig returns the default validation configuration.
func DefaultConfig() Config {
	return Config{Threshold: 0.5}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("Threshold must be in [0,1], got %v", c.Threshold)
	}
	return nil
}

// Runner executes scenario suites. Safe for concurrent use: suite state
// lives per RunSuite call.
type Runner struct {
	reasoner  *reasoner.Reasoner
	artifacts ArtifactSource
	config    Config
	logger    *slog.Logger
}

// New creates a suite runner. artifacts may be nil; gap diagnosis then
// reports content gaps, since nothing was extracted.
func New(r *reasoner.Reasoner, artifacts ArtifactSource, cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		reasoner:  r,
		artifacts: artifacts,
		config:    cfg,
		logger:    slog.Default(),
	}, nil
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// RunSuite validates every scenario and aggregates a coverage report.
// Scenarios run in parallel bounded by CPU count; results keep suite
// input order. The only error source is context cancellation.
func (r *Runner) RunSuite(ctx context.Context, scenarios []scenario.Scenario) (*CoverageReport, error) {
	results := make([]TestResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sc := range scenarios {
		g.Go(func() error {
			result, err := r.runScenario(gctx, sc)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("suite run: %w", err)
	}

	// One artifact snapshot diagnoses every failure, so a concurrent
	// extraction run cannot split the report across two graphs.
	artifacts := r.artifactSnapshot()

	report := &CoverageReport{
		Total:       len(results),
		Threshold:   r.config.Threshold,
		Results:     results,
		GeneratedAt: time.Now().UTC(),
	}
	var confidenceSum float64
	for _, result := range results {
		confidenceSum += result.Confidence
		if result.Passed {
			report.Passed++
			continue
		}
		report.Failures = append(report.Failures, result.ID)
		report.Gaps = append(report.Gaps, Gap{
			ScenarioID: result.ID,
			Kind:       ClassifyGap(artifacts, result.Keywords),
			Keywords:   result.Keywords,
		})
	}
	if report.Total > 0 {
		report.PassRate = float64(report.Passed) / float64(report.Total)
		report.AvgConfidence = confidenceSum / float64(report.Total)
	}

	r.logger.Info("suite complete",
		"total", report.Total,
		"passed", report.Passed,
		"pass_rate", report.PassRate,
		"avg_confidence", report.AvgConfidence)

	return report, nil
}

func (r *Runner) runScenario(ctx context.Context, sc scenario.Scenario) (TestResult, error) {
	question := scenario.Question(sc)
	set, err := r.reasoner.Answer(ctx, question)
	if err != nil {
		return TestResult{}, fmt.Errorf("scenario %q: %w", sc.ID(), err)
	}

	result := TestResult{
		ID:         sc.ID(),
		Scenario:   sc,
		Question:   question,
		Keywords:   set.Keywords,
		Confidence: set.Confidence,
		Evidence:   set.Evidence,
		Passed:     set.Confidence >= r.config.Threshold,
		Timestamp:  time.Now().UTC(),
	}

	r.logger.Debug("scenario validated",
		"scenario", result.ID,
		"confidence", result.Confidence,
		"passed", result.Passed)

	return result, nil
}

func (r *Runner) artifactSnapshot() *extract.Artifacts {
	if r.artifacts == nil {
		return nil
	}
	return r.artifacts.Artifacts()
}
