package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFreshnessPolicy(t *testing.T) {
	policy := DefaultFreshnessPolicy()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status Status
		age    time.Duration
		fresh  bool
	}{
		{"verified one day old", StatusVerified, 24 * time.Hour, true},
		{"verified two days old", StatusVerified, 48 * time.Hour, true},
		{"verified past window", StatusVerified, DefaultVerifiedTTL + time.Minute, false},
		{"failed one hour old", StatusFailed, time.Hour, true},
		{"failed two days old", StatusFailed, 48 * time.Hour, false},
		{"pending one hour old", StatusPending, time.Hour, true},
		{"pending two days old", StatusPending, 48 * time.Hour, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checked := NewCheckedAt(now.Add(-tc.age))
			assert.Equal(t, tc.fresh, policy.IsFresh(tc.status, checked, now))
		})
	}

	t.Run("never-checked record is stale", func(t *testing.T) {
		assert.False(t, policy.IsFresh(StatusVerified, CheckedAt{}, now))
	})
}

func TestConfidence(t *testing.T) {
	_, err := NewConfidence(1.2)
	assert.ErrorIs(t, err, ErrInvalidConfidence)
	_, err = NewConfidence(-0.1)
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	assert.Less(t, ConfidencePartner.Value(), 1.0)
	assert.Less(t, ConfidenceCached.Value(), ConfidencePartner.Value())
	assert.Zero(t, ConfidenceNone.Value())
}
