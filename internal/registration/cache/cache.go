// Package cache decides whether a stored verification outcome can be reused.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regverify/internal/registration/domain"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/models"
	"regverify/pkg/platform/sentinel"
	"regverify/pkg/requestcontext"
)

// DefaultLookupTimeout bounds a single store read.
const DefaultLookupTimeout = 2 * time.Second

// RecordReader reads stored registration records.
type RecordReader interface {
	Find(ctx context.Context, key models.Key) (*models.RegistrationRecord, error)
}

// Entry is a stored record together with its freshness at lookup time.
type Entry struct {
	Record *models.RegistrationRecord
	Fresh  bool
}

// Cache wraps the registration store with the status-dependent freshness policy.
type Cache struct {
	reader  RecordReader
	policy  domain.FreshnessPolicy
	timeout time.Duration
	metrics *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

func WithLookupTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache over reader.
func New(reader RecordReader, policy domain.FreshnessPolicy, opts ...Option) *Cache {
	c := &Cache{
		reader:  reader,
		policy:  policy,
		timeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the stored entry for key, or nil when none exists. Errors
// mean the store could not answer, not that the record is absent.
func (c *Cache) Lookup(ctx context.Context, key models.Key) (*Entry, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rec, err := c.reader.Find(lookupCtx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			c.metrics.RecordCacheLookup("miss")
			return nil, nil
		}
		c.metrics.RecordCacheLookup("error")
		return nil, fmt.Errorf("registration cache lookup: %w", err)
	}

	fresh := c.IsFresh(ctx, rec)
	if fresh {
		c.metrics.RecordCacheLookup("hit")
	} else {
		c.metrics.RecordCacheLookup("stale")
	}
	return &Entry{Record: rec, Fresh: fresh}, nil
}

// IsFresh applies the freshness policy at the request's current time.
func (c *Cache) IsFresh(ctx context.Context, rec *models.RegistrationRecord) bool {
	if rec == nil {
		return false
	}
	return c.policy.IsFresh(rec.Status, domain.NewCheckedAt(rec.VerifiedAt), requestcontext.Now(ctx))
}
