// Package outbox relays complaint-pack events written by the compliance
// service to the message broker.
//
// Entries are appended to the outbox in the same transaction as the pack
// they describe. The relay polls for unpublished entries, publishes each one
// keyed by its aggregate id and marks it published. Delivery is
// at-least-once: a crash between publish and mark republishes the entry, and
// consumers dedupe on the complaint id.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"listingwatch/internal/compliance/metrics"
	"listingwatch/internal/compliance/models"
	"listingwatch/internal/platform/logger"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 100
)

// Message is one record handed to the broker.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

// Publisher delivers messages to the broker. Publish returns once the broker
// has acknowledged the record.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Source is the slice of the compliance store the relay needs.
type Source interface {
	PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEntry, error)
	MarkOutboxPublished(ctx context.Context, id string, at time.Time) error
}

type Relay struct {
	source    Source
	publisher Publisher
	interval  time.Duration
	batchSize int
	breaker   *breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Relay)

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithBreaker sets how many consecutive publish failures pause the relay
// and for how long.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(r *Relay) {
		r.breaker = newBreaker(threshold, cooldown)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func New(source Source, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
		breaker:   newBreaker(0, 0),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Discard()
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.Flush(ctx); err != nil {
			r.logger.WarnContext(ctx, "outbox flush failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Flush publishes one batch of pending entries in outbox order and returns
// how many were published. It stops at the first failure so later entries
// are not delivered ahead of earlier ones.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	if !r.breaker.allow() {
		return 0, nil
	}
	pending, err := r.source.PendingOutbox(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending outbox: %w", err)
	}

	published := 0
	for _, entry := range pending {
		msg := Message{
			Key:   entry.AggregateID,
			Value: entry.Payload,
			Headers: map[string]string{
				"event_type":     entry.EventType,
				"aggregate_type": entry.AggregateType,
				"outbox_id":      entry.ID,
			},
		}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			r.breaker.failure()
			r.metrics.IncrementOutboxPublish("error")
			if r.breaker.isOpen() {
				r.logger.WarnContext(ctx, "outbox relay paused after repeated publish failures")
			}
			return published, fmt.Errorf("publish outbox entry %s: %w", entry.ID, err)
		}
		r.breaker.success()
		r.metrics.IncrementOutboxPublish("ok")

		if err := r.source.MarkOutboxPublished(ctx, entry.ID, r.now().UTC()); err != nil {
			return published, fmt.Errorf("mark outbox entry %s published: %w", entry.ID, err)
		}
		published++
		r.logger.DebugContext(ctx, "outbox entry published",
			"outbox_id", entry.ID,
			"aggregate_id", entry.AggregateID,
			"event_type", entry.EventType,
		)
	}
	return published, nil
}
