// Package graph publishes extracted knowledge graph entities to a NATS
// stream for downstream semstreams consumers.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/catchfish/triple"
)

// IngestSubject is the stream subject for graph entity ingestion.
const IngestSubject = "graph.ingest.entity"

// StreamPublisher publishes raw payloads to a stream subject.
// natsclient.Client satisfies it.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Publisher converts store triples into entity payloads and publishes
// them. A nil stream publisher disables publishing without error, so the
// engine runs unchanged with or without NATS.
type Publisher struct {
	nc     StreamPublisher
	logger *slog.Logger
}

// NewPublisher creates a publisher. nc may be nil.
func NewPublisher(nc StreamPublisher) *Publisher {
	return &Publisher{nc: nc, logger: slog.Default()}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// PublishRun publishes the triples of one extraction run, one entity
// payload per subject, in sorted subject order.
func (p *Publisher) PublishRun(ctx context.Context, triples []triple.Triple) error {
	if p.nc == nil || len(triples) == 0 {
		return nil
	}

	bySubject := make(map[string][]message.Triple)
	for _, t := range triples {
		bySubject[t.Subject] = append(bySubject[t.Subject], message.Triple{
			Subject:    t.Subject,
			Predicate:  t.Predicate,
			Object:     t.Object,
			Source:     t.Provenance.SourceID,
			Timestamp:  t.Provenance.Timestamp,
			Confidence: 1.0,
		})
	}

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	now := time.Now().UTC()
	for _, subject := range subjects {
		payload := &EntityPayload{
			EntityID_:  subject,
			TripleData: bySubject[subject],
			UpdatedAt:  now,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal entity %q: %w", subject, err)
		}
		if err := p.nc.PublishToStream(ctx, IngestSubject, data); err != nil {
			return fmt.Errorf("publish entity %q: %w", subject, err)
		}
	}

	p.logger.Debug("run published", "entities", len(subjects), "triples", len(triples))
	return nil
}
