// Package queue hands unresolved registration claims to human reviewers.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
	"regverify/pkg/requestcontext"
)

// DefaultTurnaround is quoted to callers when no turnaround is configured.
const DefaultTurnaround = "2-3 business days"

// ClaimWriter stores pending claims and their alerts atomically.
type ClaimWriter interface {
	EnqueuePending(ctx context.Context, claim models.PendingClaim) (*models.EnqueueOutcome, error)
}

// Claim is one unresolved verification to queue.
type Claim struct {
	Key              models.Key
	Category         domain.Category
	OwnerReference   string
	AttemptedMethods []string
	Reason           string
}

// Result is the queued record plus what to tell the caller.
type Result struct {
	Record      *models.RegistrationRecord
	AlertRaised bool
	Warnings    []string
}

// Queue is the manual verification queue.
type Queue struct {
	writer     ClaimWriter
	turnaround string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Queue)

func WithTurnaround(turnaround string) Option {
	return func(q *Queue) {
		if turnaround != "" {
			q.turnaround = turnaround
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

func New(writer ClaimWriter, opts ...Option) *Queue {
	q := &Queue{
		writer:     writer,
		turnaround: DefaultTurnaround,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stores claim as pending. Re-enqueueing a claim that is already
// pending updates its metadata and raises no further alert.
func (q *Queue) Enqueue(ctx context.Context, claim Claim) (*Result, error) {
	now := requestcontext.Now(ctx)
	outcome, err := q.writer.EnqueuePending(ctx, models.PendingClaim{
		Key:              claim.Key,
		Category:         claim.Category,
		OwnerReference:   claim.OwnerReference,
		AttemptedMethods: claim.AttemptedMethods,
		Reason:           claim.Reason,
		QueuedAt:         now,
		Alert:            newAlert(claim, now),
	})
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to queue registration for manual verification",
			"registration_number", claim.Key.RegistrationNumber,
			"jurisdiction", claim.Key.Jurisdiction.String(),
			"error", err,
		)
		return nil, fmt.Errorf("enqueue manual verification: %w", err)
	}

	q.metrics.IncrementEnqueued()
	if outcome.AlertRaised {
		q.metrics.IncrementAlertsRaised()
		q.logger.InfoContext(ctx, "compliance alert raised",
			"registration_id", outcome.Record.ID.String(),
			"registration_number", claim.Key.RegistrationNumber,
			"jurisdiction", claim.Key.Jurisdiction.String(),
			"reason", claim.Reason,
		)
	}

	return &Result{
		Record:      outcome.Record,
		AlertRaised: outcome.AlertRaised,
		Warnings:    q.warnings(claim),
	}, nil
}

func (q *Queue) warnings(claim Claim) []string {
	warnings := []string{"Automated verification was not possible; the registration has been queued for manual review."}
	if claim.Reason != "" {
		warnings = append(warnings, "Reason: "+claim.Reason+".")
	}
	return append(warnings, fmt.Sprintf("Manual verification usually completes within %s.", q.turnaround))
}

// newAlert is the template the store completes with ids when the claim
// transitions into pending.
func newAlert(claim Claim, now time.Time) models.ComplianceAlert {
	reason := claim.Reason
	if reason == "" {
		reason = "automated verification unavailable"
	}
	return models.ComplianceAlert{
		Type:     models.AlertTypeUpdateRequired,
		Severity: models.SeverityMedium,
		Title:    fmt.Sprintf("Manual verification required for registration %s", claim.Key.RegistrationNumber),
		Description: fmt.Sprintf("Registration %s (%s, %s) could not be verified automatically: %s.",
			claim.Key.RegistrationNumber, claim.Key.Jurisdiction, claim.Category, reason),
		RecommendedAction: "Verify the registration against the regulator's public portal and record the outcome.",
		CreatedAt:         now,
	}
}
