package models

import (
	"time"

	"github.com/google/uuid"

	"regverify/internal/registration/domain"
)

// VerificationRequest is one inbound verification call after parsing.
type VerificationRequest struct {
	RegistrationNumber string
	Jurisdiction       domain.Jurisdiction
	Category           domain.Category
	OwnerReference     string
	ForceRefresh       bool
}

// Result sources.
const (
	SourceFormatValidation = "format_validation"
	SourceCache            = "registration_cache"
	SourcePartner          = "partner_registry"
	SourceManualQueue      = "manual_verification_queue"
	SourceOrchestrator     = "verification_orchestrator"
)

// VerificationResult is the uniform outcome of every pipeline path.
type VerificationResult struct {
	Success            bool              `json:"success"`
	Verified           bool              `json:"verified"`
	RegistrationID     string            `json:"registrationId,omitempty"`
	Data               *RegistrationView `json:"data,omitempty"`
	VerificationMethod domain.Method     `json:"verificationMethod"`
	Confidence         float64           `json:"confidence"`
	Source             string            `json:"source"`
	Error              string            `json:"error,omitempty"`
	Warnings           []string          `json:"warnings,omitempty"`
}

// RegistrationView is the caller-facing projection of a RegistrationRecord.
type RegistrationView struct {
	RegistrationNumber  string     `json:"registration_number"`
	Jurisdiction        string     `json:"jurisdiction"`
	Category            string     `json:"category"`
	Status              string     `json:"verification_status"`
	Method              string     `json:"verification_method"`
	VerifiedAt          time.Time  `json:"verified_at"`
	RegisteredName      string     `json:"registered_name,omitempty"`
	RegistrationDate    *time.Time `json:"registration_date,omitempty"`
	ExpiryDate          *time.Time `json:"expiry_date,omitempty"`
	PromoterName        string     `json:"promoter_name,omitempty"`
	PromoterType        string     `json:"promoter_type,omitempty"`
	RegisteredAddress   string     `json:"registered_address,omitempty"`
	ContactEmail        string     `json:"contact_email,omitempty"`
	ContactPhone        string     `json:"contact_phone,omitempty"`
	Active              bool       `json:"active"`
	ComplianceScore     int        `json:"compliance_score"`
	ComplaintsCount     int        `json:"complaints_count"`
	LastComplianceCheck time.Time  `json:"last_compliance_check"`
}

// ToView projects a record for callers.
func ToView(r *RegistrationRecord) *RegistrationView {
	if r == nil {
		return nil
	}
	return &RegistrationView{
		RegistrationNumber:  r.RegistrationNumber,
		Jurisdiction:        r.Jurisdiction.String(),
		Category:            r.Category.String(),
		Status:              r.Status.String(),
		Method:              r.Method.String(),
		VerifiedAt:          r.VerifiedAt,
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
	}
}

// PartnerOutcome is the partner's answer translated into internal terms.
// When Found is false only Message is meaningful.
type PartnerOutcome struct {
	Found   bool
	Message string

	RegisteredName    string
	PartnerStatus     string
	RegistrationDate  *time.Time
	ExpiryDate        *time.Time
	PromoterName      string
	PromoterType      string
	RegisteredAddress string
	ContactEmail      string
	ContactPhone      string
	ComplianceScore   *int
	ComplaintsCount   int
	CheckedAt         time.Time
}

// PartnerActiveStatus is the only partner status accepted as verified.
const PartnerActiveStatus = "active"

// IsActive reports whether the partner explicitly confirmed an active registration.
func (o *PartnerOutcome) IsActive() bool {
	return o != nil && o.Found && o.PartnerStatus == PartnerActiveStatus
}

// SaveOutcome is a decided final outcome handed to the persister.
type SaveOutcome struct {
	Key            Key
	Category       domain.Category
	OwnerReference string
	Method         domain.Method
	Status         domain.Status
	FailureReason  string
	Partner        *PartnerOutcome
	DecidedAt      time.Time
}

// ToRecord builds the full snapshot written by the persister. The id is only
// used when no row exists yet for the key.
func (o SaveOutcome) ToRecord(id uuid.UUID) *RegistrationRecord {
	rec := &RegistrationRecord{
		ID:                  id,
		RegistrationNumber:  o.Key.RegistrationNumber,
		Jurisdiction:        o.Key.Jurisdiction,
		Category:            o.Category,
		OwnerReference:      o.OwnerReference,
		Status:              o.Status,
		Method:              o.Method,
		VerifiedAt:          o.DecidedAt,
		FailureReason:       o.FailureReason,
		ComplianceScore:     DefaultComplianceScore,
		LastComplianceCheck: o.DecidedAt,
		AttemptedMethods:    []string{o.Method.String()},
		Metadata:            RecordMetadata{Source: SourcePartner},
		CreatedAt:           o.DecidedAt,
		UpdatedAt:           o.DecidedAt,
	}
	if p := o.Partner; p != nil {
		rec.RegisteredName = p.RegisteredName
		rec.RegistrationDate = p.RegistrationDate
		rec.ExpiryDate = p.ExpiryDate
		rec.PromoterName = p.PromoterName
		rec.PromoterType = p.PromoterType
		rec.RegisteredAddress = p.RegisteredAddress
		rec.ContactEmail = p.ContactEmail
		rec.ContactPhone = p.ContactPhone
		rec.Active = p.IsActive()
		rec.ComplaintsCount = p.ComplaintsCount
		rec.Metadata.PartnerMessage = p.Message
		rec.Metadata.PartnerNotFound = !p.Found
		if p.ComplianceScore != nil {
			rec.ComplianceScore = *p.ComplianceScore
		}
	}
	return rec
}
