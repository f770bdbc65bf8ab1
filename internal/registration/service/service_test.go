package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RegistrationCache,PartnerVerifier,ResultPersister,ManualQueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"regverify/internal/registration/cache"
	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/internal/registration/providers"
	"regverify/internal/registration/queue"
	"regverify/internal/registration/service/mocks"
	"regverify/pkg/requestcontext"
)

const tnNumber = "TN/23/BUILDING/001234/2024"

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	cache     *mocks.MockRegistrationCache
	partner   *mocks.MockPartnerVerifier
	persister *mocks.MockResultPersister
	queue     *mocks.MockManualQueue
	service   *Service
	now       time.Time
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cache = mocks.NewMockRegistrationCache(s.ctrl)
	s.partner = mocks.NewMockPartnerVerifier(s.ctrl)
	s.persister = mocks.NewMockResultPersister(s.ctrl)
	s.queue = mocks.NewMockManualQueue(s.ctrl)
	s.service = New(s.cache, s.persister, s.queue, WithPartner(s.partner))
	s.now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func tnRequest() models.VerificationRequest {
	return models.VerificationRequest{
		RegistrationNumber: "TN/23/Building/001234/2024",
		Jurisdiction:       domain.JurisdictionTamilNadu,
		Category:           domain.CategoryBuilder,
		OwnerReference:     "builder-9",
	}
}

func tnKey() models.Key {
	return models.NewKey(tnNumber, domain.JurisdictionTamilNadu)
}

func storedRecord(status domain.Status, checkedAt time.Time) *models.RegistrationRecord {
	return &models.RegistrationRecord{
		ID:                 uuid.New(),
		RegistrationNumber: tnNumber,
		Jurisdiction:       domain.JurisdictionTamilNadu,
		Category:           domain.CategoryBuilder,
		Status:             status,
		Method:             domain.MethodPartner,
		VerifiedAt:         checkedAt,
		RegisteredName:     "Acme Builders",
		Active:             status == domain.StatusVerified,
		ComplianceScore:    100,
	}
}

func activeOutcome() *models.PartnerOutcome {
	return &models.PartnerOutcome{
		Found:          true,
		RegisteredName: "Acme Builders",
		PartnerStatus:  models.PartnerActiveStatus,
	}
}

// savedRecord echoes the outcome the persister received back as a stored row.
func savedRecord(_ context.Context, o models.SaveOutcome) (*models.RegistrationRecord, error) {
	return o.ToRecord(uuid.New()), nil
}

// =============================================================================
// Format validation
// =============================================================================

func (s *ServiceSuite) TestMalformedInputIsRejectedWithoutIO() {
	req := tnRequest()
	req.RegistrationNumber = "<script>"

	result := s.service.Verify(s.ctx, req)

	s.False(result.Success)
	s.False(result.Verified)
	s.NotEmpty(result.Error)
	s.Equal(domain.MethodAPI, result.VerificationMethod)
	s.Equal(models.SourceFormatValidation, result.Source)
	s.Zero(result.Confidence)
}

func (s *ServiceSuite) TestTooShortInputIsRejected() {
	req := tnRequest()
	req.RegistrationNumber = "P1"

	result := s.service.Verify(s.ctx, req)

	s.False(result.Success)
	s.Contains(result.Error, "at least")
}

func (s *ServiceSuite) TestCodeBuiltRequestIsParsedBeforeUse() {
	tests := []struct {
		name   string
		mutate func(*models.VerificationRequest)
	}{
		{"unsafe jurisdiction", func(r *models.VerificationRequest) { r.Jurisdiction = "<script>alert(1)</script>" }},
		{"unknown category", func(r *models.VerificationRequest) { r.Category = "landlord" }},
		{"control characters in owner", func(r *models.VerificationRequest) { r.OwnerReference = "a\x00b" }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := tnRequest()
			tt.mutate(&req)

			// No cache, partner, persister or queue expectations: any call fails the test.
			result := s.service.Verify(s.ctx, req)

			s.False(result.Success)
			s.NotEmpty(result.Error)
			s.Equal(models.SourceFormatValidation, result.Source)
		})
	}
}

func (s *ServiceSuite) TestCodeBuiltRequestAliasesAreCanonicalized() {
	req := tnRequest()
	req.Jurisdiction = "tn"
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).
		Return(&cache.Entry{Record: storedRecord(domain.StatusVerified, s.now), Fresh: true}, nil)

	result := s.service.Verify(s.ctx, req)

	s.True(result.Verified)
}

func (s *ServiceSuite) TestSoftFormatWarningPropagatesToResult() {
	req := models.VerificationRequest{RegistrationNumber: "MH-12345-XYZ", Jurisdiction: domain.JurisdictionMaharashtra}
	key := models.NewKey("MH-12345-XYZ", domain.JurisdictionMaharashtra)

	s.cache.EXPECT().Lookup(gomock.Any(), key).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), "MH-12345-XYZ", domain.JurisdictionMaharashtra, domain.CategoryBuilder).Return(activeOutcome(), nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(savedRecord)

	result := s.service.Verify(s.ctx, req)

	s.True(result.Verified)
	s.NotEmpty(result.Warnings)
}

// =============================================================================
// Cache
// =============================================================================

func (s *ServiceSuite) TestFreshVerifiedCacheHitSkipsPartner() {
	rec := storedRecord(domain.StatusVerified, s.now.Add(-48*time.Hour))
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(&cache.Entry{Record: rec, Fresh: true}, nil)

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.True(result.Verified)
	s.Equal(domain.MethodCached, result.VerificationMethod)
	s.Equal(models.SourceCache, result.Source)
	s.InDelta(0.95, result.Confidence, 0.03)
	s.Less(result.Confidence, domain.ConfidencePartner.Value())
	s.Equal(rec.ID.String(), result.RegistrationID)
	s.Equal("Acme Builders", result.Data.RegisteredName)
}

func (s *ServiceSuite) TestFreshFailedCacheHitSurfacesReason() {
	rec := storedRecord(domain.StatusFailed, s.now.Add(-time.Hour))
	rec.FailureReason = "registration lapsed"
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(&cache.Entry{Record: rec, Fresh: true}, nil)

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.False(result.Verified)
	s.Equal("registration lapsed", result.Error)
	s.Equal(domain.MethodCached, result.VerificationMethod)
}

func (s *ServiceSuite) TestFreshNotFoundCacheHitIsStillUnsuccessful() {
	rec := storedRecord(domain.StatusFailed, s.now.Add(-time.Hour))
	rec.FailureReason = "no such registration"
	rec.Metadata.PartnerNotFound = true
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(&cache.Entry{Record: rec, Fresh: true}, nil)

	result := s.service.Verify(s.ctx, tnRequest())

	s.False(result.Success)
	s.False(result.Verified)
	s.Equal("no such registration", result.Error)
	s.Equal(domain.MethodCached, result.VerificationMethod)
}

func (s *ServiceSuite) TestFreshPendingCacheHitHasNoConfidence() {
	rec := storedRecord(domain.StatusPending, s.now.Add(-time.Hour))
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(&cache.Entry{Record: rec, Fresh: true}, nil)

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.False(result.Verified)
	s.Zero(result.Confidence)
	s.Contains(result.Warnings, pendingReviewWarning)
}

func (s *ServiceSuite) TestStaleCacheEntryCallsPartner() {
	rec := storedRecord(domain.StatusVerified, s.now.Add(-45*24*time.Hour))
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(&cache.Entry{Record: rec, Fresh: false}, nil)
	s.partner.EXPECT().Verify(gomock.Any(), tnNumber, domain.JurisdictionTamilNadu, domain.CategoryBuilder).Return(activeOutcome(), nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(savedRecord)

	result := s.service.Verify(s.ctx, tnRequest())

	s.Equal(domain.MethodPartner, result.VerificationMethod)
	s.True(result.Verified)
}

func (s *ServiceSuite) TestCacheErrorIsTreatedAsMiss() {
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, errors.New("connection refused"))
	s.partner.EXPECT().Verify(gomock.Any(), tnNumber, domain.JurisdictionTamilNadu, domain.CategoryBuilder).Return(activeOutcome(), nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(savedRecord)

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.True(result.Verified)
}

func (s *ServiceSuite) TestForceRefreshBypassesCache() {
	req := tnRequest()
	req.ForceRefresh = true
	s.partner.EXPECT().Verify(gomock.Any(), tnNumber, domain.JurisdictionTamilNadu, domain.CategoryBuilder).Return(activeOutcome(), nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(savedRecord)

	result := s.service.Verify(s.ctx, req)

	s.Equal(domain.MethodPartner, result.VerificationMethod)
}

// =============================================================================
// Partner
// =============================================================================

func (s *ServiceSuite) TestPartnerActivePersistsVerified() {
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), tnNumber, domain.JurisdictionTamilNadu, domain.CategoryBuilder).Return(activeOutcome(), nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, o models.SaveOutcome) (*models.RegistrationRecord, error) {
		s.Equal(domain.StatusVerified, o.Status)
		s.Equal(domain.MethodPartner, o.Method)
		s.Equal(tnKey(), o.Key)
		s.Equal("builder-9", o.OwnerReference)
		s.Equal(s.now, o.DecidedAt)
		return savedRecord(ctx, o)
	})

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.True(result.Verified)
	s.Equal(domain.MethodPartner, result.VerificationMethod)
	s.Equal(models.SourcePartner, result.Source)
	s.InDelta(0.95, result.Confidence, 0.001)
	s.NotEmpty(result.RegistrationID)
	s.Equal("verified", result.Data.Status)
}

func (s *ServiceSuite) TestPartnerInactiveIsFailedWithReason() {
	outcome := activeOutcome()
	outcome.PartnerStatus = "lapsed"
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(outcome, nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, o models.SaveOutcome) (*models.RegistrationRecord, error) {
		s.Equal(domain.StatusFailed, o.Status)
		s.Equal("registration status is lapsed", o.FailureReason)
		return savedRecord(ctx, o)
	})

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.False(result.Verified)
	s.Equal("registration status is lapsed", result.Error)
	s.False(result.Data.Active)
}

func (s *ServiceSuite) TestPartnerNotFoundIsPersistedAndNotQueued() {
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.PartnerOutcome{Found: false, Message: "no such registration"}, nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, o models.SaveOutcome) (*models.RegistrationRecord, error) {
		s.Equal(domain.StatusFailed, o.Status)
		return savedRecord(ctx, o)
	})
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Times(0)

	result := s.service.Verify(s.ctx, tnRequest())

	s.False(result.Success)
	s.False(result.Verified)
	s.Equal("no such registration", result.Error)
	s.Equal(domain.MethodPartner, result.VerificationMethod)
}

func (s *ServiceSuite) TestPartnerUnavailableQueuesForManualReview() {
	pending := storedRecord(domain.StatusPending, s.now)
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, providers.NewProviderError(providers.ErrorTimeout, "partner-registry", "request timed out", nil))
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c queue.Claim) (*queue.Result, error) {
		s.Equal(tnKey(), c.Key)
		s.Equal([]string{"api", "partner"}, c.AttemptedMethods)
		s.Contains(c.Reason, "timeout")
		return &queue.Result{Record: pending, AlertRaised: true, Warnings: []string{"queued"}}, nil
	})

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.False(result.Verified)
	s.Equal(domain.MethodManual, result.VerificationMethod)
	s.Equal(models.SourceManualQueue, result.Source)
	s.Zero(result.Confidence)
	s.Equal([]string{"queued"}, result.Warnings)
	s.Equal(pending.ID.String(), result.RegistrationID)
}

func (s *ServiceSuite) TestMissingPartnerConfigQueuesWithoutCall() {
	svc := New(s.cache, s.persister, s.queue)
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c queue.Claim) (*queue.Result, error) {
		s.Equal([]string{"api"}, c.AttemptedMethods)
		s.Equal(reasonPartnerNotConfigured, c.Reason)
		return &queue.Result{Record: storedRecord(domain.StatusPending, s.now), Warnings: []string{"queued"}}, nil
	})

	result := svc.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.Equal(domain.MethodManual, result.VerificationMethod)
}

func (s *ServiceSuite) TestQueueFailureIsSurfaced() {
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is down"))

	result := s.service.Verify(s.ctx, tnRequest())

	s.False(result.Success)
	s.False(result.Verified)
	s.Equal(errQueueFailed, result.Error)
	s.Equal(domain.MethodManual, result.VerificationMethod)
}

func (s *ServiceSuite) TestPersistFailureStillReturnsResult() {
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(activeOutcome(), nil)
	s.persister.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is down"))

	result := s.service.Verify(s.ctx, tnRequest())

	s.True(result.Success)
	s.True(result.Verified)
	s.Empty(result.RegistrationID)
	s.Equal("Acme Builders", result.Data.RegisteredName)
}

func (s *ServiceSuite) TestCanceledCallerWritesNothing() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.cache.EXPECT().Lookup(gomock.Any(), tnKey()).Return(nil, nil)
	s.partner.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, domain.Jurisdiction, domain.Category) (*models.PartnerOutcome, error) {
			cancel()
			return nil, context.Canceled
		})

	result := s.service.Verify(ctx, tnRequest())

	s.False(result.Success)
	s.Equal(models.SourceOrchestrator, result.Source)
}

// =============================================================================
// Request parsing
// =============================================================================

func (s *ServiceSuite) TestParseRequestDefaults() {
	req, err := ParseRequest(RawRequest{RegistrationNumber: "P51800012345"})
	s.Require().NoError(err)
	s.Equal(domain.DefaultJurisdiction, req.Jurisdiction)
	s.Equal(domain.CategoryBuilder, req.Category)
}

func (s *ServiceSuite) TestParseRequestRejectsBadEnumerations() {
	_, err := ParseRequest(RawRequest{RegistrationNumber: "P51800012345", Category: "landlord"})
	s.Error(err)

	_, err = ParseRequest(RawRequest{RegistrationNumber: "P51800012345", Jurisdiction: "<b>"})
	s.Error(err)

	_, err = ParseRequest(RawRequest{RegistrationNumber: "P51800012345", OwnerReference: "a\x00b"})
	s.Error(err)
}
