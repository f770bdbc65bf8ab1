package providers

import (
	"context"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
)

// RegistryVerifier is implemented by every external registry source.
//
// Verify returns a PartnerOutcome when the source answered, including a clean
// "not found" (Found=false). Any failure to obtain an answer is returned as a
// *ProviderError.
type RegistryVerifier interface {
	ID() string
	Verify(ctx context.Context, registrationNumber string, jurisdiction domain.Jurisdiction, category domain.Category) (*models.PartnerOutcome, error)
}
