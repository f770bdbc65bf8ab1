// Package alerts relays compliance alerts from the store's outbox to the
// message broker. Delivery is at-least-once: an alert is marked published
// only after the broker acknowledged it.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"regverify/internal/platform/kafka"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
	"regverify/pkg/requestcontext"
)

const (
	DefaultBatchSize    = 100
	DefaultPollInterval = 5 * time.Second

	// EventType is carried in the event_type header of every message.
	EventType = "compliance_alert.raised"
)

// Outbox is the alert side of the registration store.
type Outbox interface {
	ListUnpublishedAlerts(ctx context.Context, limit int) ([]models.ComplianceAlert, error)
	MarkAlertsPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher hands messages to the broker and blocks until they are acknowledged.
type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// Relay moves unpublished alerts to the broker in creation order.
type Relay struct {
	outbox    Outbox
	publisher Publisher
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func NewRelay(outbox Outbox, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		publisher: publisher,
		batchSize: DefaultBatchSize,
		interval:  DefaultPollInterval,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays alerts every poll interval until ctx is cancelled. Failed
// batches stay in the outbox and are retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "compliance alert relay started",
		"batch_size", r.batchSize,
		"poll_interval", r.interval.String(),
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.drain(ctx)
		select {
		case <-ctx.Done():
			r.logger.InfoContext(context.WithoutCancel(ctx), "compliance alert relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// drain relays full batches until the outbox is empty or a batch fails.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.RelayOnce(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "failed to relay compliance alerts", "error", err)
			}
			return
		}
		if n < r.batchSize {
			return
		}
	}
}

// RelayOnce publishes at most one batch and returns how many alerts were
// marked published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.outbox.RunInTx(ctx, func(txCtx context.Context) error {
		batch, err := r.outbox.ListUnpublishedAlerts(txCtx, r.batchSize)
		if err != nil {
			return fmt.Errorf("list unpublished alerts: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(batch))
		ids := make([]uuid.UUID, 0, len(batch))
		for _, alert := range batch {
			msg, err := toMessage(alert)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
			ids = append(ids, alert.ID)
		}

		if err := r.publisher.Publish(txCtx, msgs...); err != nil {
			r.metrics.IncrementAlertsPublished("failed")
			return fmt.Errorf("publish alerts: %w", err)
		}
		if err := r.outbox.MarkAlertsPublished(txCtx, ids, requestcontext.Now(txCtx)); err != nil {
			return fmt.Errorf("mark alerts published: %w", err)
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	for range published {
		r.metrics.IncrementAlertsPublished("published")
	}
	if published > 0 {
		r.logger.DebugContext(ctx, "compliance alerts relayed", "count", published)
	}
	return published, nil
}

func toMessage(alert models.ComplianceAlert) (kafka.Message, error) {
	value, err := json.Marshal(alert)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode alert %s: %w", alert.ID, err)
	}
	return kafka.Message{
		Key:   []byte(alert.RegistrationID.String()),
		Value: value,
		Headers: map[string]string{
			"event_type": EventType,
			"alert_id":   alert.ID.String(),
		},
	}, nil
}
