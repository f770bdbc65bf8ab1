package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/internal/registration/store"
	"regverify/pkg/requestcontext"
)

type errReader struct{ err error }

func (r errReader) Find(context.Context, models.Key) (*models.RegistrationRecord, error) {
	return nil, r.err
}

type slowReader struct{}

func (slowReader) Find(ctx context.Context, _ models.Key) (*models.RegistrationRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func seed(t *testing.T, st *store.InMemoryStore, key models.Key, status domain.Status, at time.Time) {
	t.Helper()
	ctx := context.Background()
	if status == domain.StatusPending {
		_, err := st.EnqueuePending(ctx, models.PendingClaim{Key: key, Category: domain.CategoryBuilder, QueuedAt: at})
		require.NoError(t, err)
		return
	}
	_, err := st.Upsert(ctx, models.SaveOutcome{
		Key:       key,
		Category:  domain.CategoryBuilder,
		Method:    domain.MethodPartner,
		Status:    status,
		DecidedAt: at,
	}.ToRecord(uuid.New()))
	require.NoError(t, err)
}

func TestLookup(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	key := models.NewKey("TN/23/Building/001234/2024", domain.JurisdictionTamilNadu)

	t.Run("miss returns nil without error", func(t *testing.T) {
		c := New(store.NewInMemoryStore(), domain.DefaultFreshnessPolicy())
		entry, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("store failure is an error, not a miss", func(t *testing.T) {
		c := New(errReader{err: errors.New("connection refused")}, domain.DefaultFreshnessPolicy())
		_, err := c.Lookup(ctx, key)
		assert.Error(t, err)
	})

	t.Run("lookup is bounded by the timeout", func(t *testing.T) {
		c := New(slowReader{}, domain.DefaultFreshnessPolicy(), WithLookupTimeout(20*time.Millisecond))
		_, err := c.Lookup(ctx, key)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	freshness := []struct {
		name   string
		status domain.Status
		age    time.Duration
		fresh  bool
	}{
		{"verified two days ago is fresh", domain.StatusVerified, 48 * time.Hour, true},
		{"verified past the long window is stale", domain.StatusVerified, 31 * 24 * time.Hour, false},
		{"failed two days ago is stale", domain.StatusFailed, 48 * time.Hour, false},
		{"failed an hour ago is fresh", domain.StatusFailed, time.Hour, true},
		{"pending two days ago is stale", domain.StatusPending, 48 * time.Hour, false},
		{"pending an hour ago is fresh", domain.StatusPending, time.Hour, true},
	}
	for _, tc := range freshness {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewInMemoryStore()
			seed(t, st, key, tc.status, now.Add(-tc.age))
			c := New(st, domain.DefaultFreshnessPolicy())

			entry, err := c.Lookup(ctx, key)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, tc.status, entry.Record.Status)
			assert.Equal(t, tc.fresh, entry.Fresh)
		})
	}
}
