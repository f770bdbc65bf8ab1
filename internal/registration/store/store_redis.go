package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
)

const (
	recordKeyPrefix = "regverify:registration:"
	repairKeyPrefix = "regverify:repair:"
)

// RedisStore fronts a durable Store with a Redis read-through tier.
//
// Reads try Redis first and fall back to the durable store, populating Redis.
// Writes go to the durable store first. When a final outcome cannot be written
// durably, its snapshot is parked under a repair key; the next Find for that
// key retries the durable write and serves the snapshot meanwhile.
type RedisStore struct {
	durable   Store
	client    *redis.Client
	recordTTL time.Duration
	repairTTL time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(s *RedisStore) {
		s.metrics = m
	}
}

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRepairTTL bounds how long a parked snapshot waits for repair.
func WithRepairTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.repairTTL = ttl
		}
	}
}

// NewRedisStore decorates durable. recordTTL should cover the longest
// freshness window so Redis never drops a record the cache would still serve.
func NewRedisStore(durable Store, client *redis.Client, recordTTL time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		durable:   durable,
		client:    client,
		recordTTL: recordTTL,
		repairTTL: 7 * 24 * time.Hour,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Find(ctx context.Context, key models.Key) (*models.RegistrationRecord, error) {
	if rec, ok := s.repair(ctx, key); ok {
		return rec, nil
	}

	raw, err := s.client.Get(ctx, recordKeyPrefix+key.String()).Bytes()
	switch {
	case err == nil:
		rec, decodeErr := decodeRecord(raw)
		if decodeErr == nil {
			return rec, nil
		}
		s.logger.WarnContext(ctx, "discarding undecodable cached registration", "key", key.String(), "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "redis read failed, using durable store", "key", key.String(), "error", err)
	}

	rec, err := s.durable.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, rec)
	return rec, nil
}

// repair retries a parked snapshot. ok is true when a snapshot exists, in
// which case it (or the repaired row) is what the caller should see.
func (s *RedisStore) repair(ctx context.Context, key models.Key) (*models.RegistrationRecord, bool) {
	repairKey := repairKeyPrefix + key.String()
	raw, err := s.client.Get(ctx, repairKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "redis repair lookup failed", "key", key.String(), "error", err)
		}
		return nil, false
	}
	snapshot, err := decodeRecord(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "dropping undecodable repair snapshot", "key", key.String(), "error", err)
		_ = s.client.Del(ctx, repairKey).Err()
		return nil, false
	}

	stored, err := s.durable.Upsert(ctx, snapshot)
	if err != nil {
		s.metrics.IncrementReadRepair("failed")
		s.logger.WarnContext(ctx, "read-repair failed, serving parked snapshot",
			"registration_number", key.RegistrationNumber,
			"jurisdiction", key.Jurisdiction.String(),
			"error", err,
		)
		return snapshot, true
	}
	s.metrics.IncrementReadRepair("repaired")
	s.logger.InfoContext(ctx, "read-repair persisted parked outcome",
		"registration_number", key.RegistrationNumber,
		"jurisdiction", key.Jurisdiction.String(),
	)
	_ = s.client.Del(ctx, repairKey).Err()
	s.put(ctx, stored)
	return stored, true
}

func (s *RedisStore) Upsert(ctx context.Context, record *models.RegistrationRecord) (*models.RegistrationRecord, error) {
	stored, err := s.durable.Upsert(ctx, record)
	if err != nil {
		if validateFinal(record) == nil {
			s.park(ctx, record)
		}
		return nil, err
	}
	_ = s.client.Del(ctx, repairKeyPrefix+record.Key().String()).Err()
	s.put(ctx, stored)
	return stored, nil
}

func (s *RedisStore) park(ctx context.Context, record *models.RegistrationRecord) {
	raw, err := encodeRecord(record)
	if err == nil {
		// The caller's context may already be done; parking must still happen.
		ctx = context.WithoutCancel(ctx)
		err = s.client.Set(ctx, repairKeyPrefix+record.Key().String(), raw, s.repairTTL).Err()
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to park outcome for read-repair",
			"registration_number", record.RegistrationNumber,
			"jurisdiction", record.Jurisdiction.String(),
			"error", err,
		)
		return
	}
	s.metrics.IncrementReadRepair("parked")
	_ = s.client.Del(ctx, recordKeyPrefix+record.Key().String()).Err()
}

func (s *RedisStore) EnqueuePending(ctx context.Context, claim models.PendingClaim) (*models.EnqueueOutcome, error) {
	outcome, err := s.durable.EnqueuePending(ctx, claim)
	if err != nil {
		_ = s.client.Del(ctx, recordKeyPrefix+claim.Key.String()).Err()
		return nil, err
	}
	_ = s.client.Del(ctx, repairKeyPrefix+claim.Key.String()).Err()
	s.put(ctx, outcome.Record)
	return outcome, nil
}

func (s *RedisStore) ListUnpublishedAlerts(ctx context.Context, limit int) ([]models.ComplianceAlert, error) {
	return s.durable.ListUnpublishedAlerts(ctx, limit)
}

func (s *RedisStore) MarkAlertsPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	return s.durable.MarkAlertsPublished(ctx, ids, at)
}

func (s *RedisStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.durable.RunInTx(ctx, fn)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return s.durable.Ping(ctx)
}

func (s *RedisStore) put(ctx context.Context, rec *models.RegistrationRecord) {
	raw, err := encodeRecord(rec)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode registration for redis", "error", err)
		return
	}
	if err := s.client.Set(ctx, recordKeyPrefix+rec.Key().String(), raw, s.recordTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to write registration to redis", "error", err)
	}
}

// fill populates Redis after a durable read. It never replaces an existing
// entry: a write that landed after the durable read is newer than rec.
func (s *RedisStore) fill(ctx context.Context, rec *models.RegistrationRecord) {
	raw, err := encodeRecord(rec)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode registration for redis", "error", err)
		return
	}
	if err := s.client.SetNX(ctx, recordKeyPrefix+rec.Key().String(), raw, s.recordTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to write registration to redis", "error", err)
	}
}

// cachedRecord is the Redis encoding of a RegistrationRecord.
type cachedRecord struct {
	ID                  uuid.UUID             `json:"id"`
	RegistrationNumber  string                `json:"registration_number"`
	Jurisdiction        string                `json:"jurisdiction"`
	Category            string                `json:"category"`
	OwnerReference      string                `json:"owner_reference,omitempty"`
	Status              string                `json:"status"`
	Method              string                `json:"method"`
	VerifiedAt          time.Time             `json:"verified_at"`
	FailureReason       string                `json:"failure_reason,omitempty"`
	RegisteredName      string                `json:"registered_name,omitempty"`
	RegistrationDate    *time.Time            `json:"registration_date,omitempty"`
	ExpiryDate          *time.Time            `json:"expiry_date,omitempty"`
	PromoterName        string                `json:"promoter_name,omitempty"`
	PromoterType        string                `json:"promoter_type,omitempty"`
	RegisteredAddress   string                `json:"registered_address,omitempty"`
	ContactEmail        string                `json:"contact_email,omitempty"`
	ContactPhone        string                `json:"contact_phone,omitempty"`
	Active              bool                  `json:"active"`
	ComplianceScore     int                   `json:"compliance_score"`
	ComplaintsCount     int                   `json:"complaints_count"`
	LastComplianceCheck time.Time             `json:"last_compliance_check"`
	AttemptedMethods    []string              `json:"attempted_methods,omitempty"`
	Metadata            models.RecordMetadata `json:"metadata"`
	PendingTransitionID *uuid.UUID            `json:"pending_transition_id,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

func encodeRecord(r *models.RegistrationRecord) ([]byte, error) {
	return json.Marshal(cachedRecord{
		ID:                  r.ID,
		RegistrationNumber:  r.RegistrationNumber,
		Jurisdiction:        r.Jurisdiction.String(),
		Category:            r.Category.String(),
		OwnerReference:      r.OwnerReference,
		Status:              r.Status.String(),
		Method:              r.Method.String(),
		VerifiedAt:          r.VerifiedAt,
		FailureReason:       r.FailureReason,
		RegisteredName:      r.RegisteredName,
		RegistrationDate:    r.RegistrationDate,
		ExpiryDate:          r.ExpiryDate,
		PromoterName:        r.PromoterName,
		PromoterType:        r.PromoterType,
		RegisteredAddress:   r.RegisteredAddress,
		ContactEmail:        r.ContactEmail,
		ContactPhone:        r.ContactPhone,
		Active:              r.Active,
		ComplianceScore:     r.ComplianceScore,
		ComplaintsCount:     r.ComplaintsCount,
		LastComplianceCheck: r.LastComplianceCheck,
		AttemptedMethods:    r.AttemptedMethods,
		Metadata:            r.Metadata,
		PendingTransitionID: r.PendingTransitionID,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	})
}

func decodeRecord(raw []byte) (*models.RegistrationRecord, error) {
	var c cachedRecord
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &models.RegistrationRecord{
		ID:                  c.ID,
		RegistrationNumber:  c.RegistrationNumber,
		Jurisdiction:        domain.Jurisdiction(c.Jurisdiction),
		Category:            domain.Category(c.Category),
		OwnerReference:      c.OwnerReference,
		Status:              domain.Status(c.Status),
		Method:              domain.Method(c.Method),
		VerifiedAt:          c.VerifiedAt,
		FailureReason:       c.FailureReason,
		RegisteredName:      c.RegisteredName,
		RegistrationDate:    c.RegistrationDate,
		ExpiryDate:          c.ExpiryDate,
		PromoterName:        c.PromoterName,
		PromoterType:        c.PromoterType,
		RegisteredAddress:   c.RegisteredAddress,
		ContactEmail:        c.ContactEmail,
		ContactPhone:        c.ContactPhone,
		Active:              c.Active,
		ComplianceScore:     c.ComplianceScore,
		ComplaintsCount:     c.ComplaintsCount,
		LastComplianceCheck: c.LastComplianceCheck,
		AttemptedMethods:    c.AttemptedMethods,
		Metadata:            c.Metadata,
		PendingTransitionID: c.PendingTransitionID,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}, nil
}
