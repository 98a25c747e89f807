// Package storage persists validation results and coverage reports in
// NATS KV for trend analysis across runs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/catchfish/validator"
)

// EntityType represents the type of entity stored in KV.
type EntityType string

const (
	EntityTypeResult EntityType = "result"
	EntityTypeReport EntityType = "report"
)

// Bucket names for each entity type.
const (
	BucketResults = "CATCHFISH_RESULTS"
	BucketReports = "CATCHFISH_REPORTS"
)

// EntityID represents a typed entity identifier.
type EntityID struct {
	Type EntityType
	ID   string
}

// String returns the string representation of the entity ID.
func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.ID)
}

// ParseEntityID parses an entity ID string into its components.
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return EntityID{}, fmt.Errorf("invalid entity ID format: %s", s)
	}
	entityType := EntityType(parts[0])
	switch entityType {
	case EntityTypeResult, EntityTypeReport:
		return EntityID{Type: entityType, ID: parts[1]}, nil
	default:
		return EntityID{}, fmt.Errorf("unknown entity type: %s", parts[0])
	}
}

// NewEntityID generates a new unique entity ID for the given type.
func NewEntityID(t EntityType) EntityID {
	return EntityID{
		Type: t,
		ID:   uuid.New().String(),
	}
}

// StoredResult wraps one test result with its producing run.
type StoredResult struct {
	ID     string               `json:"id"`
	RunID  string               `json:"run_id"`
	Result validator.TestResult `json:"result"`
}

// StoredReport wraps one coverage report with its producing run.
type StoredReport struct {
	ID     string                   `json:"id"`
	RunID  string                   `json:"run_id"`
	Report validator.CoverageReport `json:"report"`
}

// Store provides result and report storage backed by NATS KV. Results are
// append-only: each suite run adds new records, old ones are retained.
type Store struct {
	results jetstream.KeyValue
	reports jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the necessary KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	results, err := getOrCreateBucket(ctx, js, BucketResults)
	if err != nil {
		return nil, fmt.Errorf("create results bucket: %w", err)
	}

	reports, err := getOrCreateBucket(ctx, js, BucketReports)
	if err != nil {
		return nil, fmt.Errorf("create reports bucket: %w", err)
	}

	return &Store{
		results: results,
		reports: reports,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Catchfish %s storage", strings.ToLower(name)),
		History:     5,
	})
}

// SaveResult persists one test result under a fresh key.
func (s *Store) SaveResult(ctx context.Context, runID string, result validator.TestResult) (EntityID, error) {
	id := NewEntityID(EntityTypeResult)
	stored := StoredResult{
		ID:     id.String(),
		RunID:  runID,
		Result: result,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal result: %w", err)
	}

	if _, err := s.results.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store result: %w", err)
	}

	return id, nil
}

// GetResult retrieves a stored result by ID.
func (s *Store) GetResult(ctx context.Context, id EntityID) (*StoredResult, error) {
	if id.Type != EntityTypeResult {
		return nil, fmt.Errorf("invalid entity type: expected result, got %s", id.Type)
	}

	entry, err := s.results.Get(ctx, id.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	var stored StoredResult
	if err := json.Unmarshal(entry.Value(), &stored); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}

	return &stored, nil
}

// ResultHistory returns every stored result for one scenario, oldest
// first, for trend analysis across runs.
func (s *Store) ResultHistory(ctx context.Context, scenarioID string) ([]*StoredResult, error) {
	all, err := s.listResults(ctx)
	if err != nil {
		return nil, err
	}

	var history []*StoredResult
	for _, stored := range all {
		if stored.Result.ID == scenarioID {
			history = append(history, stored)
		}
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Result.Timestamp.Before(history[j].Result.Timestamp)
	})
	return history, nil
}

func (s *Store) listResults(ctx context.Context) ([]*StoredResult, error) {
	keys, err := s.results.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list result keys: %w", err)
	}

	results := make([]*StoredResult, 0, len(keys))
	for _, key := range keys {
		entry, err := s.results.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var stored StoredResult
		if err := json.Unmarshal(entry.Value(), &stored); err != nil {
			continue
		}
		results = append(results, &stored)
	}

	return results, nil
}

// SaveReport persists one coverage report under a fresh key.
func (s *Store) SaveReport(ctx context.Context, runID string, report *validator.CoverageReport) (EntityID, error) {
	id := NewEntityID(EntityTypeReport)
	stored := StoredReport{
		ID:     id.String(),
		RunID:  runID,
		Report: *report,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal report: %w", err)
	}

	if _, err := s.reports.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store report: %w", err)
	}

	return id, nil
}

// GetReport retrieves a stored report by ID.
func (s *Store) GetReport(ctx context.Context, id EntityID) (*StoredReport, error) {
	if id.Type != EntityTypeReport {
		return nil, fmt.Errorf("invalid entity type: expected report, got %s", id.Type)
	}

	entry, err := s.reports.Get(ctx, id.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	var stored StoredReport
	if err := json.Unmarshal(entry.Value(), &stored); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}

	return &stored, nil
}

// ListReports returns every stored report, oldest first by generation
// time.
func (s *Store) ListReports(ctx context.Context) ([]*StoredReport, error) {
	keys, err := s.reports.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list report keys: %w", err)
	}

	reports := make([]*StoredReport, 0, len(keys))
	for _, key := range keys {
		entry, err := s.reports.Get(ctx, key)
		if err != nil {
			continue
		}
		var stored StoredReport
		if err := json.Unmarshal(entry.Value(), &stored); err != nil {
			continue
		}
		reports = append(reports, &stored)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Report.GeneratedAt.Before(reports[j].Report.GeneratedAt)
	})
	return reports, nil
}

// LatestReport returns the most recently generated report.
func (s *Store) LatestReport(ctx context.Context) (*StoredReport, error) {
	reports, err := s.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNotFound
	}
	return reports[len(reports)-1], nil
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound)
}
