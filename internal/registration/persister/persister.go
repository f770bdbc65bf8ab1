// Package persister writes decided verification outcomes. Persistence is
// best-effort: failures are logged and counted, and the caller still returns
// its in-memory result.
package persister

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
)

// RecordWriter upserts final outcomes keyed on the natural key.
type RecordWriter interface {
	Upsert(ctx context.Context, record *models.RegistrationRecord) (*models.RegistrationRecord, error)
}

type Persister struct {
	writer  RecordWriter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Persister)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Persister) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Persister) {
		p.metrics = m
	}
}

func New(writer RecordWriter, opts ...Option) *Persister {
	p := &Persister{
		writer: writer,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save upserts the full snapshot for outcome and returns the stored row.
// An existing row for the key is overwritten in place.
func (p *Persister) Save(ctx context.Context, outcome models.SaveOutcome) (*models.RegistrationRecord, error) {
	stored, err := p.writer.Upsert(ctx, outcome.ToRecord(uuid.New()))
	if err != nil {
		p.metrics.IncrementPersistFailures()
		p.logger.ErrorContext(ctx, "failed to persist verification outcome",
			"registration_number", outcome.Key.RegistrationNumber,
			"jurisdiction", outcome.Key.Jurisdiction.String(),
			"status", outcome.Status.String(),
			"method", outcome.Method.String(),
			"error", err,
		)
		return nil, fmt.Errorf("persist verification outcome: %w", err)
	}
	return stored, nil
}
