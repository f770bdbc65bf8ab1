package persister

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/internal/registration/store"
)

type failingWriter struct{}

func (failingWriter) Upsert(context.Context, *models.RegistrationRecord) (*models.RegistrationRecord, error) {
	return nil, errors.New("database is down")
}

func outcome(status domain.Status, at time.Time) models.SaveOutcome {
	return models.SaveOutcome{
		Key:            models.NewKey("P51800012345", domain.JurisdictionMaharashtra),
		Category:       domain.CategoryProject,
		OwnerReference: "builder-42",
		Method:         domain.MethodPartner,
		Status:         status,
		DecidedAt:      at,
		Partner: &models.PartnerOutcome{
			Found:          true,
			RegisteredName: "Skyline Towers",
			PartnerStatus:  "active",
		},
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)

	t.Run("idempotent upsert keeps one row with the latest outcome", func(t *testing.T) {
		st := store.NewInMemoryStore()
		p := New(st)

		first, err := p.Save(ctx, outcome(domain.StatusVerified, now))
		require.NoError(t, err)

		failed := outcome(domain.StatusFailed, now.Add(time.Hour))
		failed.FailureReason = "registration lapsed"
		failed.Partner.PartnerStatus = "lapsed"
		second, err := p.Save(ctx, failed)
		require.NoError(t, err)

		assert.Equal(t, 1, st.Len())
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, domain.StatusFailed, second.Status)
		assert.False(t, second.Active)
		assert.Equal(t, "builder-42", second.OwnerReference)
	})

	t.Run("partner fields are mapped onto the record", func(t *testing.T) {
		p := New(store.NewInMemoryStore())
		o := outcome(domain.StatusVerified, now)
		score := 72
		o.Partner.ComplianceScore = &score
		o.Partner.ComplaintsCount = 3

		rec, err := p.Save(ctx, o)
		require.NoError(t, err)
		assert.Equal(t, "Skyline Towers", rec.RegisteredName)
		assert.True(t, rec.Active)
		assert.Equal(t, 72, rec.ComplianceScore)
		assert.Equal(t, 3, rec.ComplaintsCount)
		assert.Equal(t, now, rec.LastComplianceCheck)
	})

	t.Run("compliance score defaults to 100", func(t *testing.T) {
		p := New(store.NewInMemoryStore())
		o := outcome(domain.StatusFailed, now)
		o.Partner = nil

		rec, err := p.Save(ctx, o)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultComplianceScore, rec.ComplianceScore)
	})

	t.Run("failure is logged and returned", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(failingWriter{}, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		rec, err := p.Save(ctx, outcome(domain.StatusVerified, now))
		assert.Nil(t, rec)
		assert.Error(t, err)
		assert.Contains(t, buf.String(), "failed to persist verification outcome")
		assert.Contains(t, buf.String(), "P51800012345")
	})
}
