// Package config provides configuration loading and management for
// Catchfish.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Catchfish configuration
type Config struct {
	Documents  DocumentsConfig  `yaml:"documents"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Reasoner   ReasonerConfig   `yaml:"reasoner"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Navigator  NavigatorConfig  `yaml:"navigator"`
	NATS       NATSConfig       `yaml:"nats"`
}

// DocumentsConfig configures source document ingestion and fallback search
type DocumentsConfig struct {
	// Roots are the document search roots. Plain directories or glob
	// patterns.
	Roots []string `yaml:"roots"`
	// ScenarioDir is the directory holding Gherkin feature files
	ScenarioDir string `yaml:"scenario_dir"`
	// ExcludeDirs are directory names skipped during scans
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// SearchTimeout bounds the fallback full-text scan
	SearchTimeout time.Duration `yaml:"search_timeout"`
}

// VocabularyConfig selects the keyword extraction domain
type VocabularyConfig struct {
	// Domain is a registered vocabulary domain (empty = generic extractor)
	Domain string `yaml:"domain"`
}

// ReasonerConfig configures evidence aggregation
type ReasonerConfig struct {
	// FallbackFloor is the graph triple count below which document search runs
	FallbackFloor int `yaml:"fallback_floor"`
	// GraphWeight is the per-triple evidence weight
	GraphWeight float64 `yaml:"graph_weight"`
	// DocWeight is the per-document-hit evidence weight
	DocWeight float64 `yaml:"doc_weight"`
}

// ValidatorConfig configures suite validation
type ValidatorConfig struct {
	// ConfidenceThreshold is the minimum confidence for a scenario to pass
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// NavigatorConfig configures the orchestration loop
type NavigatorConfig struct {
	// MaxCycles is the cycle budget
	MaxCycles int `yaml:"max_cycles"`
	// QualityGate is the pass rate at which the graph is converged
	QualityGate float64 `yaml:"quality_gate"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = no publishing unless embedded)
	URL string `yaml:"url"`
	// Embedded indicates whether to run an embedded NATS server
	Embedded bool `yaml:"embedded"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Roots:         []string{"docs"},
			ScenarioDir:   "features",
			ExcludeDirs:   []string{".git", "node_modules", "vendor"},
			SearchTimeout: 10 * time.Second,
		},
		Vocabulary: VocabularyConfig{
			Domain: "", // Generic extractor
		},
		Reasoner: ReasonerConfig{
			FallbackFloor: 3,
			GraphWeight:   1.0,
			DocWeight:     0.3,
		},
		Validator: ValidatorConfig{
			ConfidenceThreshold: 0.5,
		},
		Navigator: NavigatorConfig{
			MaxCycles:   5,
			QualityGate: 0.95,
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: false,
		},
	}
}

// Validate checks that the configuration is valid. Unreadable document
// roots are a hard failure: they indicate a setup problem, not a data
// problem.
func (c *Config) Validate() error {
	if len(c.Documents.Roots) == 0 {
		return fmt.Errorf("documents.roots is required")
	}
	for _, root := range c.Documents.Roots {
		if isGlobPattern(root) {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			return fmt.Errorf("documents.roots: %w", err)
		}
	}
	if c.Reasoner.FallbackFloor < 0 {
		return fmt.Errorf("reasoner.fallback_floor must be non-negative")
	}
	if c.Reasoner.GraphWeight <= 0 {
		return fmt.Errorf("reasoner.graph_weight must be positive")
	}
	if c.Reasoner.DocWeight <= 0 {
		return fmt.Errorf("reasoner.doc_weight must be positive")
	}
	if c.Validator.ConfidenceThreshold < 0 || c.Validator.ConfidenceThreshold > 1 {
		return fmt.Errorf("validator.confidence_threshold must be between 0 and 1")
	}
	if c.Navigator.MaxCycles <= 0 {
		return fmt.Errorf("navigator.max_cycles must be positive")
	}
	if c.Navigator.QualityGate <= 0 || c.Navigator.QualityGate > 1 {
		return fmt.Errorf("navigator.quality_gate must be between 0 and 1")
	}
	return nil
}

// isGlobPattern reports whether a root is a glob rather than a literal
// path.
func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Documents
	if len(other.Documents.Roots) > 0 {
		c.Documents.Roots = other.Documents.Roots
	}
	if other.Documents.ScenarioDir != "" {
		c.Documents.ScenarioDir = other.Documents.ScenarioDir
	}
	if len(other.Documents.ExcludeDirs) > 0 {
		c.Documents.ExcludeDirs = other.Documents.ExcludeDirs
	}
	if other.Documents.SearchTimeout != 0 {
		c.Documents.SearchTimeout = other.Documents.SearchTimeout
	}

	// Vocabulary
	if other.Vocabulary.Domain != "" {
		c.Vocabulary.Domain = other.Vocabulary.Domain
	}

	// Reasoner
	if other.Reasoner.FallbackFloor != 0 {
		c.Reasoner.FallbackFloor = other.Reasoner.FallbackFloor
	}
	if other.Reasoner.GraphWeight != 0 {
		c.Reasoner.GraphWeight = other.Reasoner.GraphWeight
	}
	if other.Reasoner.DocWeight != 0 {
		c.Reasoner.DocWeight = other.Reasoner.DocWeight
	}

	// Validator
	if other.Validator.ConfidenceThreshold != 0 {
		c.Validator.ConfidenceThreshold = other.Validator.ConfidenceThreshold
	}

	// Navigator
	if other.Navigator.MaxCycles != 0 {
		c.Navigator.MaxCycles = other.Navigator.MaxCycles
	}
	if other.Navigator.QualityGate != 0 {
		c.Navigator.QualityGate = other.Navigator.QualityGate
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
	if other.NATS.Embedded {
		c.NATS.Embedded = true
	}
}
