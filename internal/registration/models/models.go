package models

import (
	"time"

	"github.com/google/uuid"

	"regverify/internal/registration/domain"
)

// RegistrationRecord is the stored verification state of one
// (registration number, jurisdiction) pair.
type RegistrationRecord struct {
	ID                 uuid.UUID
	RegistrationNumber string
	Jurisdiction       domain.Jurisdiction
	Category           domain.Category
	OwnerReference     string

	Status        domain.Status
	Method        domain.Method
	VerifiedAt    time.Time
	FailureReason string

	RegisteredName      string
	RegistrationDate    *time.Time
	ExpiryDate          *time.Time
	PromoterName        string
	PromoterType        string
	RegisteredAddress   string
	ContactEmail        string
	ContactPhone        string
	Active              bool
	ComplianceScore     int
	ComplaintsCount     int
	LastComplianceCheck time.Time

	AttemptedMethods []string
	Metadata         RecordMetadata

	// PendingTransitionID identifies the current stay in pending status.
	// It changes only when the record enters pending from another status.
	PendingTransitionID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordMetadata is the audit trail carried with a record.
type RecordMetadata struct {
	Source         string    `json:"source,omitempty"`
	QueuedAt       time.Time `json:"queued_at,omitzero"`
	LastQueuedAt   time.Time `json:"last_queued_at,omitzero"`
	EnqueueCount   int       `json:"enqueue_count,omitempty"`
	QueueReason    string    `json:"queue_reason,omitempty"`
	PartnerMessage string    `json:"partner_message,omitempty"`

	// PartnerNotFound marks a failed outcome where the partner answered that
	// no such registration exists. Always encoded so a later outcome clears it.
	PartnerNotFound bool `json:"partner_not_found"`
}

// DefaultComplianceScore applies when no source reports one.
const DefaultComplianceScore = 100

// Key returns the natural key of the record.
func (r *RegistrationRecord) Key() Key {
	return Key{RegistrationNumber: r.RegistrationNumber, Jurisdiction: r.Jurisdiction}
}

// Key is the natural key of a registration record.
type Key struct {
	RegistrationNumber string
	Jurisdiction       domain.Jurisdiction
}

// NewKey normalizes the registration number.
func NewKey(number string, jurisdiction domain.Jurisdiction) Key {
	return Key{RegistrationNumber: domain.NormalizeRegistrationNumber(number), Jurisdiction: jurisdiction}
}

func (k Key) String() string {
	return k.Jurisdiction.String() + "|" + k.RegistrationNumber
}

// AlertType and AlertSeverity classify compliance alerts.
type (
	AlertType     string
	AlertSeverity string
)

const (
	AlertTypeUpdateRequired AlertType = "update_required"

	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// ComplianceAlert is an append-only notice for human follow-up.
type ComplianceAlert struct {
	ID                uuid.UUID     `json:"id"`
	RegistrationID    uuid.UUID     `json:"registration_id"`
	TransitionID      uuid.UUID     `json:"transition_id"`
	Type              AlertType     `json:"alert_type"`
	Severity          AlertSeverity `json:"severity"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	RecommendedAction string        `json:"recommended_action"`
	CreatedAt         time.Time     `json:"created_at"`
	PublishedAt       *time.Time    `json:"-"`
}

// PendingClaim is what the manual queue stores for an unresolved claim.
type PendingClaim struct {
	Key              Key
	Category         domain.Category
	OwnerReference   string
	AttemptedMethods []string
	Reason           string
	QueuedAt         time.Time
	Alert            ComplianceAlert
}

// EnqueueOutcome reports the stored pending record and whether an alert was raised.
type EnqueueOutcome struct {
	Record      *RegistrationRecord
	AlertRaised bool
}
