// Package contract checks that a RegistryVerifier honours the outcome shape
// the orchestrator relies on. Provider packages run a ContractSuite against
// a stubbed upstream.
package contract

import (
	"context"
	"testing"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/internal/registration/providers"
)

// ContractTest is one upstream scenario and the outcome it must produce.
type ContractTest struct {
	Name               string
	Provider           providers.RegistryVerifier
	RegistrationNumber string
	Jurisdiction       domain.Jurisdiction
	Category           domain.Category
	// WantCategory is set when the call must fail with that category.
	WantCategory providers.ErrorCategory
	ValidateFunc func(outcome *models.PartnerOutcome) error
}

// ContractSuite is a collection of contract tests for a provider.
type ContractSuite struct {
	ProviderID string
	Tests      []ContractTest
}

// Run executes all contract tests in the suite.
func (s *ContractSuite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			if got := test.Provider.ID(); got != s.ProviderID {
				t.Errorf("expected provider ID %s, got %s", s.ProviderID, got)
			}

			outcome, err := test.Provider.Verify(context.Background(), test.RegistrationNumber, test.Jurisdiction, test.Category)
			if test.WantCategory != "" {
				if err == nil {
					t.Fatalf("expected %s failure, got outcome %+v", test.WantCategory, outcome)
				}
				if got := providers.GetCategory(err); got != test.WantCategory {
					t.Fatalf("expected category %s, got %s (%v)", test.WantCategory, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("provider verify failed: %v", err)
			}
			if outcome == nil {
				t.Fatal("provider returned neither outcome nor error")
			}

			if outcome.CheckedAt.IsZero() {
				t.Error("CheckedAt not set")
			}
			if !outcome.Found && outcome.Message == "" {
				t.Error("not-found outcome must carry a message")
			}
			if outcome.Found && outcome.RegisteredName == "" {
				t.Error("found outcome must carry a registered name")
			}
			if outcome.ComplianceScore != nil && (*outcome.ComplianceScore < 0 || *outcome.ComplianceScore > 100) {
				t.Errorf("compliance score %d out of range [0, 100]", *outcome.ComplianceScore)
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(outcome); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}
