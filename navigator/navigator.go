// Package navigator drives the extract, validate, gap-analyze cycle until
// the coverage quality gate is met or the cycle budget runs out.
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/catchfish/extract"
	"github.com/c360studio/catchfish/scenario"
	"github.com/c360studio/catchfish/source"
	"github.com/c360studio/catchfish/validator"
)

// State is the orchestration loop state.
type State string

// Loop states. Converged and Exhausted are terminal.
const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateValidating   State = "validating"
	StateGapAnalyzing State = "gap_analyzing"
	StateConverged    State = "converged"
	StateExhausted    State = "exhausted"
)

// Config holds orchestration tunables.
type Config struct {
	// MaxCycles is the cycle budget.
	MaxCycles int `yaml:"max_cycles"`

	// QualityGate is the suite pass rate at which the graph is considered
	// converged.
	QualityGate float64 `yaml:"quality_gate"`
}

// DefaultConfig returns the default orchestration configuration.
func DefaultConfig() Config {
	return Config{
		MaxCycles:   5,
		QualityGate: 0.95,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MaxCycles <= 0 {
		return fmt.Errorf("MaxCycles must be positive, got %d", c.MaxCycles)
	}
	if c.QualityGate <= 0 || c.QualityGate > 1 {
		return fmt.Errorf("QualityGate must be in (0,1], got %v", c.QualityGate)
	}
	return nil
}

// CycleRecord is the audit record of one completed cycle.
type CycleRecord struct {
	// Cycle is the 1-based cycle number.
	Cycle int `json:"cycle"`

	// PassRate is the suite pass rate observed this cycle.
	PassRate float64 `json:"pass_rate"`

	// AvgConfidence is the suite average confidence this cycle.
	AvgConfidence float64 `json:"avg_confidence"`

	// Inserted is the number of triples the extraction run added.
	Inserted int `json:"inserted"`

	// Duplicates is the number of already-known triples the run produced.
	Duplicates int `json:"duplicates"`

	// Gaps counts diagnosed gaps per kind.
	Gaps map[validator.GapKind]int `json:"gaps,omitempty"`

	// Hints is the number of hint keywords fed into this cycle.
	Hints int `json:"hints"`

	// CompletedAt is when the cycle finished.
	CompletedAt time.Time `json:"completed_at"`
}

// Navigator owns one orchestration loop over one pipeline and one suite
// runner. Cycles run strictly sequentially: each cycle's extraction
// consumes the previous cycle's gap report.
type Navigator struct {
	pipeline *extract.Pipeline
	runner   *validator.Runner
	config   Config
	logger   *slog.Logger
	metrics  *Metrics

	mu      sync.Mutex
	state   State
	records []CycleRecord
}

// New creates a navigator.
func New(pipeline *extract.Pipeline, runner *validator.Runner, cfg Config) (*Navigator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Navigator{
		pipeline: pipeline,
		runner:   runner,
		config:   cfg,
		logger:   slog.Default(),
		state:    StateIdle,
	}, nil
}

// SetLogger sets the logger for the navigator.
func (n *Navigator) SetLogger(logger *slog.Logger) {
	n.logger = logger
}

// SetMetrics attaches metrics. Nil disables metric observation.
func (n *Navigator) SetMetrics(m *Metrics) {
	n.metrics = m
}

// State returns the current loop state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Cycles returns the cycle records accumulated so far.
func (n *Navigator) Cycles() []CycleRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]CycleRecord(nil), n.records...)
}

func (n *Navigator) setState(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// Run executes the loop until convergence, exhaustion, or cancellation.
// On exhaustion the best-observed report is returned with Converged false;
// exhaustion is a reported outcome, not an error. Errors come only from
// cancellation or extraction failure.
func (n *Navigator) Run(ctx context.Context, docs []source.Document, scenarios []scenario.Scenario) (*validator.CoverageReport, error) {
	var best *validator.CoverageReport
	var hints []string

	for cycle := 1; cycle <= n.config.MaxCycles; cycle++ {
		log := n.logger.With("cycle", cycle)

		n.setState(StateExtracting)
		runResult, err := n.pipeline.Run(ctx, docs, hints)
		if err != nil {
			return nil, fmt.Errorf("cycle %d extraction: %w", cycle, err)
		}

		n.setState(StateValidating)
		report, err := n.runner.RunSuite(ctx, scenarios)
		if err != nil {
			return nil, fmt.Errorf("cycle %d validation: %w", cycle, err)
		}

		record := CycleRecord{
			Cycle:         cycle,
			PassRate:      report.PassRate,
			AvgConfidence: report.AvgConfidence,
			Inserted:      runResult.Inserted,
			Duplicates:    runResult.Duplicates,
			Gaps:          gapCounts(report),
			Hints:         len(hints),
			CompletedAt:   time.Now().UTC(),
		}
		n.mu.Lock()
		n.records = append(n.records, record)
		n.mu.Unlock()
		n.metrics.observeCycle(record)

		log.Info("cycle complete",
			"pass_rate", record.PassRate,
			"avg_confidence", record.AvgConfidence,
			"inserted", record.Inserted,
			"gaps", len(report.Gaps))

		if best == nil || betterReport(report, best) {
			best = report
		}

		if report.PassRate >= n.config.QualityGate {
			report.Converged = true
			n.setState(StateConverged)
			log.Info("quality gate reached", "gate", n.config.QualityGate)
			return report, nil
		}

		if cycle == n.config.MaxCycles {
			break
		}

		n.setState(StateGapAnalyzing)
		hints = report.GapHints()
	}

	n.setState(StateExhausted)
	best.Converged = false
	n.logger.Warn("cycle budget exhausted without convergence",
		"max_cycles", n.config.MaxCycles,
		"best_pass_rate", best.PassRate)
	return best, nil
}

// betterReport reports whether a beats b, by pass rate then average
// confidence.
func betterReport(a, b *validator.CoverageReport) bool {
	if a.PassRate != b.PassRate {
		return a.PassRate > b.PassRate
	}
	return a.AvgConfidence > b.AvgConfidence
}

func gapCounts(report *validator.CoverageReport) map[validator.GapKind]int {
	if len(report.Gaps) == 0 {
		return nil
	}
	counts := make(map[validator.GapKind]int)
	for _, gap := range report.Gaps {
		counts[gap.Kind]++
	}
	return counts
}
