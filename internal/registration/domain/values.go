package domain

import (
	"errors"
	"strings"
	"time"
)

// NormalizeRegistrationNumber trims surrounding whitespace and uppercases the
// number. Lookups and persistence always use the normalized form.
func NormalizeRegistrationNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Confidence is a trust score between 0.0 and 1.0.
//
// Invariants:
//   - Value must be between 0.0 and 1.0 inclusive
type Confidence struct {
	value float64
}

// ErrInvalidConfidence indicates the confidence score is out of range.
var ErrInvalidConfidence = errors.New("invalid confidence: must be between 0.0 and 1.0")

// NewConfidence creates a validated Confidence score.
func NewConfidence(value float64) (Confidence, error) {
	if value < 0.0 || value > 1.0 {
		return Confidence{}, ErrInvalidConfidence
	}
	return Confidence{value: value}, nil
}

// MustConfidence creates a Confidence, panicking if invalid.
func MustConfidence(value float64) Confidence {
	c, err := NewConfidence(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Value returns the confidence score.
func (c Confidence) Value() float64 {
	return c.value
}

// Pipeline confidence levels. A partner is a third-party source, never ground
// truth, so nothing the pipeline produces reaches 1.0.
var (
	ConfidencePartner = MustConfidence(0.95)
	ConfidenceCached  = MustConfidence(0.93)
	ConfidenceNone    = MustConfidence(0)
)

// CheckedAt is the timestamp at which a verification outcome was decided.
type CheckedAt struct {
	value time.Time
}

// NewCheckedAt creates a CheckedAt from a time value.
func NewCheckedAt(t time.Time) CheckedAt {
	return CheckedAt{value: t}
}

// Time returns the underlying time value.
func (c CheckedAt) Time() time.Time {
	return c.value
}

// IsExpiredAt checks if this check is older than ttl relative to now.
func (c CheckedAt) IsExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.value) > ttl
}

// IsFreshAt checks if this check is still within ttl relative to now.
func (c CheckedAt) IsFreshAt(now time.Time, ttl time.Duration) bool {
	return !c.IsExpiredAt(now, ttl)
}

// IsZero returns true if this is the zero value.
func (c CheckedAt) IsZero() bool {
	return c.value.IsZero()
}
