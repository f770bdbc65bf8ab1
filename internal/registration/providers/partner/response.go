package partner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"regverify/internal/registration/models"
)

const defaultNotFoundMessage = "registration not found in partner registry"

type verifyResponse struct {
	Found   *bool               `json:"found"`
	Message string              `json:"message"`
	Data    *verifyResponseData `json:"data"`
}

type verifyResponseData struct {
	RegisteredName    string `json:"registered_name"`
	Status            string `json:"status"`
	RegistrationDate  string `json:"registration_date"`
	ExpiryDate        string `json:"expiry_date"`
	PromoterName      string `json:"promoter_name"`
	PromoterType      string `json:"promoter_type"`
	RegisteredAddress string `json:"registered_address"`
	ContactEmail      string `json:"contact_email"`
	ContactPhone      string `json:"contact_phone"`
	ComplianceScore   *int   `json:"compliance_score"`
	ComplaintsCount   *int   `json:"complaints_count"`
}

// parseVerifyResponse validates every field the pipeline relies on. Unknown
// fields are ignored so the partner can extend its payload.
func parseVerifyResponse(raw []byte) (*models.PartnerOutcome, error) {
	var resp verifyResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return nil, errors.New("trailing data after response object")
	}
	if resp.Found == nil {
		return nil, errors.New("missing required field: found")
	}

	message := strings.TrimSpace(resp.Message)
	if !*resp.Found {
		if message == "" {
			message = defaultNotFoundMessage
		}
		return &models.PartnerOutcome{Found: false, Message: message}, nil
	}

	d := resp.Data
	if d == nil {
		return nil, errors.New("missing required field: data")
	}
	name := strings.TrimSpace(d.RegisteredName)
	if name == "" {
		return nil, errors.New("missing required field: data.registered_name")
	}
	status := strings.ToLower(strings.TrimSpace(d.Status))
	if status == "" {
		return nil, errors.New("missing required field: data.status")
	}

	registered, err := parseDate("registration_date", d.RegistrationDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDate("expiry_date", d.ExpiryDate)
	if err != nil {
		return nil, err
	}
	if d.ComplianceScore != nil && (*d.ComplianceScore < 0 || *d.ComplianceScore > 100) {
		return nil, fmt.Errorf("compliance_score %d out of range 0-100", *d.ComplianceScore)
	}
	complaints := 0
	if d.ComplaintsCount != nil {
		if *d.ComplaintsCount < 0 {
			return nil, fmt.Errorf("complaints_count %d is negative", *d.ComplaintsCount)
		}
		complaints = *d.ComplaintsCount
	}

	return &models.PartnerOutcome{
		Found:             true,
		Message:           message,
		RegisteredName:    name,
		PartnerStatus:     status,
		RegistrationDate:  registered,
		ExpiryDate:        expiry,
		PromoterName:      strings.TrimSpace(d.PromoterName),
		PromoterType:      strings.TrimSpace(d.PromoterType),
		RegisteredAddress: strings.TrimSpace(d.RegisteredAddress),
		ContactEmail:      strings.TrimSpace(d.ContactEmail),
		ContactPhone:      strings.TrimSpace(d.ContactPhone),
		ComplianceScore:   d.ComplianceScore,
		ComplaintsCount:   complaints,
	}, nil
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s %q is not a valid date", field, value)
}
