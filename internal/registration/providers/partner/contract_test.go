package partner

import (
	"errors"
	"net/http"
	"testing"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/internal/registration/providers"
	"regverify/internal/registration/providers/contract"
)

func TestPartnerClientContract(t *testing.T) {
	stub := func(status int, body string) *Client {
		return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, body)
		})
	}

	suite := &contract.ContractSuite{
		ProviderID: DefaultProviderID,
		Tests: []contract.ContractTest{
			{
				Name:               "active registration",
				Provider:           stub(http.StatusOK, `{"found":true,"data":{"registered_name":"Acme Builders","status":"active","compliance_score":92}}`),
				RegistrationNumber: testNumber,
				Jurisdiction:       domain.JurisdictionTamilNadu,
				Category:           domain.CategoryBuilder,
				ValidateFunc: func(o *models.PartnerOutcome) error {
					if !o.IsActive() {
						return errors.New("expected active outcome")
					}
					return nil
				},
			},
			{
				Name:               "not found without message gets a default",
				Provider:           stub(http.StatusOK, `{"found":false}`),
				RegistrationNumber: testNumber,
				Jurisdiction:       domain.JurisdictionTamilNadu,
				Category:           domain.CategoryAgent,
			},
			{
				Name:               "unauthorized",
				Provider:           stub(http.StatusUnauthorized, `{}`),
				RegistrationNumber: testNumber,
				Jurisdiction:       domain.JurisdictionTamilNadu,
				Category:           domain.CategoryProject,
				WantCategory:       providers.ErrorAuthentication,
			},
			{
				Name:               "rate limited",
				Provider:           stub(http.StatusTooManyRequests, `{}`),
				RegistrationNumber: testNumber,
				Jurisdiction:       domain.JurisdictionTamilNadu,
				Category:           domain.CategoryProject,
				WantCategory:       providers.ErrorRateLimited,
			},
			{
				Name:               "score out of range",
				Provider:           stub(http.StatusOK, `{"found":true,"data":{"registered_name":"Acme","status":"active","compliance_score":140}}`),
				RegistrationNumber: testNumber,
				Jurisdiction:       domain.JurisdictionTamilNadu,
				Category:           domain.CategoryBuilder,
				WantCategory:       providers.ErrorBadData,
			},
		},
	}

	suite.Run(t)
}
