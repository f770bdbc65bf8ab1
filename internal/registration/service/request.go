package service

import (
	"fmt"
	"strings"
	"unicode"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
)

const maxOwnerReferenceLength = 128

// RawRequest is the inbound call before its enumerations are parsed.
type RawRequest struct {
	RegistrationNumber string
	Jurisdiction       string
	Category           string
	OwnerReference     string
	ForceRefresh       bool
}

// ParseRequest parses raw caller input. The registration number itself is
// left for the format validator.
func ParseRequest(raw RawRequest) (models.VerificationRequest, error) {
	jurisdiction, err := domain.ParseJurisdiction(raw.Jurisdiction)
	if err != nil {
		return models.VerificationRequest{}, err
	}
	category, err := domain.ParseCategory(raw.Category)
	if err != nil {
		return models.VerificationRequest{}, err
	}
	owner := strings.TrimSpace(raw.OwnerReference)
	if len(owner) > maxOwnerReferenceLength {
		return models.VerificationRequest{}, fmt.Errorf("owner reference must be at most %d characters", maxOwnerReferenceLength)
	}
	if strings.ContainsFunc(owner, unicode.IsControl) {
		return models.VerificationRequest{}, fmt.Errorf("owner reference contains control characters")
	}
	return models.VerificationRequest{
		RegistrationNumber: raw.RegistrationNumber,
		Jurisdiction:       jurisdiction,
		Category:           category,
		OwnerReference:     owner,
		ForceRefresh:       raw.ForceRefresh,
	}, nil
}
