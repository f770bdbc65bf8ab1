package domain

import "time"

const (
	DefaultVerifiedTTL  = 30 * 24 * time.Hour
	DefaultUnsettledTTL = 24 * time.Hour
)

// FreshnessPolicy decides how long a stored outcome may be reused. Verified
// outcomes are trusted for longer than failed or pending ones so that newly
// registered entities get rechecked soon.
//
// Invariants:
//   - UnsettledTTL <= VerifiedTTL
type FreshnessPolicy struct {
	VerifiedTTL  time.Duration
	UnsettledTTL time.Duration
}

// DefaultFreshnessPolicy returns the standard windows.
func DefaultFreshnessPolicy() FreshnessPolicy {
	return FreshnessPolicy{VerifiedTTL: DefaultVerifiedTTL, UnsettledTTL: DefaultUnsettledTTL}
}

// TTL returns the staleness window for a status.
func (p FreshnessPolicy) TTL(status Status) time.Duration {
	if status.IsSettled() {
		return p.VerifiedTTL
	}
	return p.UnsettledTTL
}

// IsFresh reports whether an outcome with the given status, checked at
// checkedAt, may still be served at now.
func (p FreshnessPolicy) IsFresh(status Status, checkedAt CheckedAt, now time.Time) bool {
	if checkedAt.IsZero() {
		return false
	}
	return checkedAt.IsFreshAt(now, p.TTL(status))
}
