// Package service implements the verification orchestrator. It owns the
// decision of which state a request resolves to. The cache, partner,
// persister and queue stages only store, fetch or report what it decides.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"regverify/internal/registration/cache"
	"regverify/internal/registration/domain"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
	"regverify/internal/registration/providers"
	"regverify/internal/registration/queue"
	"regverify/pkg/requestcontext"
)

// RegistrationCache looks up previously decided records with freshness applied.
type RegistrationCache interface {
	Lookup(ctx context.Context, key models.Key) (*cache.Entry, error)
}

// PartnerVerifier confirms a registration against the partner registry.
type PartnerVerifier interface {
	Verify(ctx context.Context, registrationNumber string, jurisdiction domain.Jurisdiction, category domain.Category) (*models.PartnerOutcome, error)
}

// ResultPersister stores final outcomes.
type ResultPersister interface {
	Save(ctx context.Context, outcome models.SaveOutcome) (*models.RegistrationRecord, error)
}

// ManualQueue holds claims automation could not resolve.
type ManualQueue interface {
	Enqueue(ctx context.Context, claim queue.Claim) (*queue.Result, error)
}

const (
	reasonPartnerNotConfigured = "partner registry not configured"
	reasonPartnerUnavailable   = "partner registry unavailable"
	pendingReviewWarning       = "Registration is awaiting manual verification."
	errQueueFailed             = "unable to queue registration for manual verification"
	errCanceled                = "verification canceled before a decision was reached"
)

// Service is the verification orchestrator.
type Service struct {
	cache     RegistrationCache
	partner   PartnerVerifier
	persister ResultPersister
	queue     ManualQueue
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

// WithPartner enables the partner stage. Without it every cache miss goes
// straight to the manual queue.
func WithPartner(p PartnerVerifier) Option {
	return func(s *Service) {
		s.partner = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(c RegistrationCache, p ResultPersister, q ManualQueue, opts ...Option) *Service {
	s := &Service{
		cache:     c,
		persister: p,
		queue:     q,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer("regverify/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the pipeline for one request and always returns a result.
// Format -> cache -> partner -> persist, falling back to the manual queue
// when the partner cannot give an answer.
func (s *Service) Verify(ctx context.Context, req models.VerificationRequest) *models.VerificationResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registration.verify", trace.WithAttributes(
		attribute.Bool("registration.force_refresh", req.ForceRefresh),
	))
	defer span.End()

	// Requests built in code skip ParseRequest, so the caller-supplied fields
	// are parsed again before anything is keyed or stored on them.
	var result *models.VerificationResult
	parsed, err := ParseRequest(RawRequest{
		RegistrationNumber: req.RegistrationNumber,
		Jurisdiction:       req.Jurisdiction.String(),
		Category:           req.Category.String(),
		OwnerReference:     req.OwnerReference,
		ForceRefresh:       req.ForceRefresh,
	})
	if err != nil {
		result = RejectInput(err.Error())
	} else {
		span.SetAttributes(
			attribute.String("registration.jurisdiction", parsed.Jurisdiction.String()),
			attribute.String("registration.category", parsed.Category.String()),
		)
		result = s.verify(ctx, verifyInput{
			key:      models.NewKey(domain.NormalizeRegistrationNumber(parsed.RegistrationNumber), parsed.Jurisdiction),
			category: parsed.Category,
			owner:    parsed.OwnerReference,
			force:    parsed.ForceRefresh,
		})
	}

	span.SetAttributes(
		attribute.Bool("registration.success", result.Success),
		attribute.Bool("registration.verified", result.Verified),
		attribute.String("registration.method", result.VerificationMethod.String()),
		attribute.String("registration.source", result.Source),
	)
	s.metrics.IncrementOutcome(outcomeLabel(result), result.VerificationMethod.String())
	s.metrics.ObserveVerifyLatency(time.Since(start))
	return result
}

type verifyInput struct {
	key      models.Key
	category domain.Category
	owner    string
	force    bool
}

func (s *Service) verify(ctx context.Context, in verifyInput) *models.VerificationResult {
	validation := domain.Validate(in.key.RegistrationNumber, in.key.Jurisdiction)
	if !validation.Valid {
		return RejectInput(validation.Error)
	}
	warnings := validation.Warnings

	if !in.force {
		if rec := s.freshRecord(ctx, in.key); rec != nil {
			return fromCache(rec, warnings)
		}
	}

	attempted := []string{domain.MethodAPI.String()}
	if s.partner == nil {
		return s.enqueue(ctx, in, attempted, reasonPartnerNotConfigured, warnings)
	}

	attempted = append(attempted, domain.MethodPartner.String())
	outcome, err := s.partner.Verify(ctx, in.key.RegistrationNumber, in.key.Jurisdiction, in.category)
	if err != nil || outcome == nil {
		if ctx.Err() != nil {
			return canceled(warnings)
		}
		reason := reasonPartnerUnavailable
		if cat := providers.GetCategory(err); cat != "" {
			reason += " (" + string(cat) + ")"
		}
		s.logger.WarnContext(ctx, "partner verification unavailable, routing to manual review",
			"registration_number", in.key.RegistrationNumber,
			"jurisdiction", in.key.Jurisdiction.String(),
			"retryable", providers.IsRetryable(err),
			"error", err,
		)
		return s.enqueue(ctx, in, attempted, reason, warnings)
	}

	return s.decide(ctx, in, outcome, warnings)
}

// freshRecord returns the cached record when it is fresh. Lookup failures are
// treated as a miss.
func (s *Service) freshRecord(ctx context.Context, key models.Key) *models.RegistrationRecord {
	entry, err := s.cache.Lookup(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "registration cache lookup failed, treating as miss",
			"registration_number", key.RegistrationNumber,
			"jurisdiction", key.Jurisdiction.String(),
			"error", err,
		)
		return nil
	}
	if entry == nil || !entry.Fresh || entry.Record == nil {
		return nil
	}
	return entry.Record
}

// decide turns a partner answer into a final outcome and persists it.
func (s *Service) decide(ctx context.Context, in verifyInput, outcome *models.PartnerOutcome, warnings []string) *models.VerificationResult {
	save := models.SaveOutcome{
		Key:            in.key,
		Category:       in.category,
		OwnerReference: in.owner,
		Method:         domain.MethodPartner,
		Partner:        outcome,
		DecidedAt:      requestcontext.Now(ctx),
	}
	switch {
	case outcome.IsActive():
		save.Status = domain.StatusVerified
	case !outcome.Found:
		save.Status = domain.StatusFailed
		save.FailureReason = outcome.Message
	default:
		save.Status = domain.StatusFailed
		save.FailureReason = inactiveReason(outcome)
	}

	if ctx.Err() != nil {
		return canceled(warnings)
	}
	rec := s.persist(ctx, save)

	return &models.VerificationResult{
		Success:            outcome.Found,
		Verified:           save.Status == domain.StatusVerified,
		RegistrationID:     recordID(rec),
		Data:               models.ToView(rec),
		VerificationMethod: domain.MethodPartner,
		Confidence:         domain.ConfidencePartner.Value(),
		Source:             models.SourcePartner,
		Error:              save.FailureReason,
		Warnings:           warnings,
	}
}

// persist saves the outcome and falls back to the unsaved snapshot so the
// caller still gets its result.
func (s *Service) persist(ctx context.Context, save models.SaveOutcome) *models.RegistrationRecord {
	stored, err := s.persister.Save(ctx, save)
	if err != nil {
		return save.ToRecord(uuid.Nil)
	}
	return stored
}

func (s *Service) enqueue(ctx context.Context, in verifyInput, attempted []string, reason string, warnings []string) *models.VerificationResult {
	res, err := s.queue.Enqueue(ctx, queue.Claim{
		Key:              in.key,
		Category:         in.category,
		OwnerReference:   in.owner,
		AttemptedMethods: attempted,
		Reason:           reason,
	})
	if err != nil {
		if ctx.Err() != nil {
			return canceled(warnings)
		}
		return &models.VerificationResult{
			VerificationMethod: domain.MethodManual,
			Confidence:         domain.ConfidenceNone.Value(),
			Source:             models.SourceManualQueue,
			Error:              errQueueFailed,
			Warnings:           warnings,
		}
	}
	return &models.VerificationResult{
		Success:            true,
		RegistrationID:     recordID(res.Record),
		Data:               models.ToView(res.Record),
		VerificationMethod: domain.MethodManual,
		Confidence:         domain.ConfidenceNone.Value(),
		Source:             models.SourceManualQueue,
		Warnings:           append(append([]string{}, warnings...), res.Warnings...),
	}
}

func fromCache(rec *models.RegistrationRecord, warnings []string) *models.VerificationResult {
	result := &models.VerificationResult{
		Success:            true,
		Verified:           rec.Status == domain.StatusVerified,
		RegistrationID:     recordID(rec),
		Data:               models.ToView(rec),
		VerificationMethod: domain.MethodCached,
		Confidence:         domain.ConfidenceCached.Value(),
		Source:             models.SourceCache,
		Warnings:           warnings,
	}
	switch rec.Status {
	case domain.StatusFailed:
		result.Error = rec.FailureReason
		// A partner "not found" stays a failed call when replayed from cache.
		result.Success = !rec.Metadata.PartnerNotFound
	case domain.StatusPending:
		result.Confidence = domain.ConfidenceNone.Value()
		result.Warnings = append(append([]string{}, warnings...), pendingReviewWarning)
	}
	return result
}

// RejectInput is the result for a request that failed input validation.
// Nothing is looked up or written for it.
func RejectInput(message string) *models.VerificationResult {
	return &models.VerificationResult{
		VerificationMethod: domain.MethodAPI,
		Confidence:         domain.ConfidenceNone.Value(),
		Source:             models.SourceFormatValidation,
		Error:              message,
	}
}

func canceled(warnings []string) *models.VerificationResult {
	return &models.VerificationResult{
		VerificationMethod: domain.MethodAPI,
		Confidence:         domain.ConfidenceNone.Value(),
		Source:             models.SourceOrchestrator,
		Error:              errCanceled,
		Warnings:           warnings,
	}
}

func inactiveReason(outcome *models.PartnerOutcome) string {
	if outcome.Message != "" {
		return outcome.Message
	}
	if outcome.PartnerStatus == "" {
		return "registration is not active"
	}
	return "registration status is " + outcome.PartnerStatus
}

func recordID(rec *models.RegistrationRecord) string {
	if rec == nil || rec.ID == uuid.Nil {
		return ""
	}
	return rec.ID.String()
}

func outcomeLabel(r *models.VerificationResult) string {
	switch {
	case r.Source == models.SourceFormatValidation:
		return "rejected"
	case r.Source == models.SourceOrchestrator:
		return "canceled"
	case r.Verified:
		return domain.StatusVerified.String()
	case r.VerificationMethod == domain.MethodManual && r.Success:
		return domain.StatusPending.String()
	case r.VerificationMethod == domain.MethodManual:
		return "error"
	case r.Data != nil:
		return r.Data.Status
	default:
		return domain.StatusFailed.String()
	}
}
