package store_test

import (
	"time"

	"github.com/google/uuid"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
)

var testNow = time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)

func testKey(number string) models.Key {
	return models.NewKey(number, domain.JurisdictionTamilNadu)
}

func verifiedRecord(key models.Key, name string, at time.Time) *models.RegistrationRecord {
	return models.SaveOutcome{
		Key:       key,
		Category:  domain.CategoryBuilder,
		Method:    domain.MethodPartner,
		Status:    domain.StatusVerified,
		DecidedAt: at,
		Partner: &models.PartnerOutcome{
			Found:          true,
			RegisteredName: name,
			PartnerStatus:  models.PartnerActiveStatus,
		},
	}.ToRecord(uuid.New())
}

func failedRecord(key models.Key, reason string, at time.Time) *models.RegistrationRecord {
	return models.SaveOutcome{
		Key:           key,
		Category:      domain.CategoryBuilder,
		Method:        domain.MethodPartner,
		Status:        domain.StatusFailed,
		FailureReason: reason,
		DecidedAt:     at,
	}.ToRecord(uuid.New())
}

func pendingClaim(key models.Key, at time.Time, attempted ...string) models.PendingClaim {
	return models.PendingClaim{
		Key:              key,
		Category:         domain.CategoryBuilder,
		AttemptedMethods: attempted,
		Reason:           "partner unavailable",
		QueuedAt:         at,
		Alert: models.ComplianceAlert{
			Type:              models.AlertTypeUpdateRequired,
			Severity:          models.SeverityMedium,
			Title:             "Manual verification required",
			Description:       "Automated verification could not complete",
			RecommendedAction: "Verify on the regulator portal",
			CreatedAt:         at,
		},
	}
}
