// Package store persists registration records and compliance alerts.
//
// All implementations share the same contract: one record per natural key,
// final outcomes overwrite in place, and a compliance alert is raised only
// when a record enters pending from another status.
package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/pkg/platform/sentinel"
	platformstrings "regverify/pkg/platform/strings"
)

// ErrNotFound is returned when no record exists for a natural key.
var ErrNotFound = sentinel.ErrNotFound

// Store is the durable registration store.
type Store interface {
	Find(ctx context.Context, key models.Key) (*models.RegistrationRecord, error)
	// Upsert writes a final (verified or failed) outcome and returns the stored row.
	Upsert(ctx context.Context, record *models.RegistrationRecord) (*models.RegistrationRecord, error)
	// EnqueuePending moves a record into pending and raises an alert on transition.
	EnqueuePending(ctx context.Context, claim models.PendingClaim) (*models.EnqueueOutcome, error)
	ListUnpublishedAlerts(ctx context.Context, limit int) ([]models.ComplianceAlert, error)
	MarkAlertsPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	// RunInTx runs fn so that store calls made with its context share one unit of work.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
}

func validateFinal(record *models.RegistrationRecord) error {
	if record == nil {
		return errRecordRequired
	}
	if record.Status == domain.StatusPending {
		return errPendingViaUpsert
	}
	if record.RegistrationNumber == "" {
		return errKeyRequired
	}
	return nil
}

// mergeFinal applies a final outcome over an existing row, mirroring the
// PostgreSQL upsert.
func mergeFinal(existing, incoming *models.RegistrationRecord) *models.RegistrationRecord {
	merged := cloneRecord(incoming)
	if existing == nil {
		merged.PendingTransitionID = nil
		merged.AttemptedMethods = unionMethods(nil, incoming.AttemptedMethods)
		return merged
	}
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	if merged.OwnerReference == "" {
		merged.OwnerReference = existing.OwnerReference
	}
	merged.AttemptedMethods = unionMethods(existing.AttemptedMethods, incoming.AttemptedMethods)
	merged.Metadata = mergeMetadata(existing.Metadata, incoming.Metadata)
	merged.PendingTransitionID = nil
	return merged
}

// mergePending applies a pending claim over an existing row, mirroring the
// PostgreSQL enqueue statement. transitioned is true when the record was not
// already pending.
func mergePending(existing *models.RegistrationRecord, claim models.PendingClaim, recordID, transitionID uuid.UUID) (merged *models.RegistrationRecord, transitioned bool) {
	fresh := models.RecordMetadata{
		Source:       models.SourceManualQueue,
		QueuedAt:     claim.QueuedAt,
		LastQueuedAt: claim.QueuedAt,
		EnqueueCount: 1,
		QueueReason:  claim.Reason,
	}

	if existing == nil {
		tid := transitionID
		return &models.RegistrationRecord{
			ID:                  recordID,
			RegistrationNumber:  claim.Key.RegistrationNumber,
			Jurisdiction:        claim.Key.Jurisdiction,
			Category:            claim.Category,
			OwnerReference:      claim.OwnerReference,
			Status:              domain.StatusPending,
			Method:              domain.MethodManual,
			VerifiedAt:          claim.QueuedAt,
			ComplianceScore:     models.DefaultComplianceScore,
			LastComplianceCheck: claim.QueuedAt,
			AttemptedMethods:    unionMethods(nil, claim.AttemptedMethods),
			Metadata:            fresh,
			PendingTransitionID: &tid,
			CreatedAt:           claim.QueuedAt,
			UpdatedAt:           claim.QueuedAt,
		}, true
	}

	merged = cloneRecord(existing)
	merged.Category = claim.Category
	if claim.OwnerReference != "" {
		merged.OwnerReference = claim.OwnerReference
	}
	merged.Status = domain.StatusPending
	merged.Method = domain.MethodManual
	merged.VerifiedAt = claim.QueuedAt
	merged.FailureReason = ""
	merged.UpdatedAt = claim.QueuedAt

	if existing.Status == domain.StatusPending && existing.PendingTransitionID != nil {
		merged.AttemptedMethods = unionMethods(existing.AttemptedMethods, claim.AttemptedMethods)
		merged.Metadata.LastQueuedAt = claim.QueuedAt
		merged.Metadata.QueueReason = claim.Reason
		merged.Metadata.EnqueueCount = existing.Metadata.EnqueueCount + 1
		return merged, false
	}

	tid := transitionID
	merged.AttemptedMethods = unionMethods(nil, claim.AttemptedMethods)
	merged.Metadata = mergeMetadata(existing.Metadata, fresh)
	merged.PendingTransitionID = &tid
	return merged, true
}

// mergeMetadata overlays non-zero fields of next onto prev, like jsonb ||.
// PartnerNotFound is never omitted from the encoding, so it always follows next.
func mergeMetadata(prev, next models.RecordMetadata) models.RecordMetadata {
	out := prev
	out.PartnerNotFound = next.PartnerNotFound
	if next.Source != "" {
		out.Source = next.Source
	}
	if !next.QueuedAt.IsZero() {
		out.QueuedAt = next.QueuedAt
	}
	if !next.LastQueuedAt.IsZero() {
		out.LastQueuedAt = next.LastQueuedAt
	}
	if next.EnqueueCount != 0 {
		out.EnqueueCount = next.EnqueueCount
	}
	if next.QueueReason != "" {
		out.QueueReason = next.QueueReason
	}
	if next.PartnerMessage != "" {
		out.PartnerMessage = next.PartnerMessage
	}
	return out
}

// unionMethods returns the sorted distinct union of both lists.
func unionMethods(a, b []string) []string {
	return platformstrings.SortedUnion(a, b)
}

func cloneRecord(r *models.RegistrationRecord) *models.RegistrationRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.AttemptedMethods = slices.Clone(r.AttemptedMethods)
	if r.RegistrationDate != nil {
		t := *r.RegistrationDate
		c.RegistrationDate = &t
	}
	if r.ExpiryDate != nil {
		t := *r.ExpiryDate
		c.ExpiryDate = &t
	}
	if r.PendingTransitionID != nil {
		id := *r.PendingTransitionID
		c.PendingTransitionID = &id
	}
	return &c
}

func newAlert(claim models.PendingClaim, registrationID, transitionID uuid.UUID) models.ComplianceAlert {
	alert := claim.Alert
	alert.ID = uuid.New()
	alert.RegistrationID = registrationID
	alert.TransitionID = transitionID
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = claim.QueuedAt
	}
	alert.PublishedAt = nil
	return alert
}
