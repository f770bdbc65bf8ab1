package handler

import (
	"strings"

	"regverify/internal/registration/service"
	dErrors "regverify/pkg/domain-errors"
)

const maxFieldLength = 256

type verifyRequest struct {
	RegistrationNumber string `json:"registration_number"`
	Jurisdiction       string `json:"jurisdiction"`
	Category           string `json:"category"`
	OwnerReference     string `json:"owner_reference"`
	ForceRefresh       bool   `json:"force_refresh"`
}

// Validate trims fields and bounds their size. Content rules belong to the
// pipeline, which reports them in the result.
func (r *verifyRequest) Validate() error {
	r.RegistrationNumber = strings.TrimSpace(r.RegistrationNumber)
	r.Jurisdiction = strings.TrimSpace(r.Jurisdiction)
	r.Category = strings.TrimSpace(r.Category)
	r.OwnerReference = strings.TrimSpace(r.OwnerReference)

	for _, f := range []string{r.RegistrationNumber, r.Jurisdiction, r.Category, r.OwnerReference} {
		if len(f) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "request field exceeds maximum length")
		}
	}
	return nil
}

func (r *verifyRequest) toRaw() service.RawRequest {
	return service.RawRequest{
		RegistrationNumber: r.RegistrationNumber,
		Jurisdiction:       r.Jurisdiction,
		Category:           r.Category,
		OwnerReference:     r.OwnerReference,
		ForceRefresh:       r.ForceRefresh,
	}
}
