package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"regverify/internal/registration/models"
)

// InMemoryStore is a process-local Store for tests and single-node runs.
// The mutex plays the role of the unique natural-key constraint.
type InMemoryStore struct {
	mu          sync.RWMutex
	records     map[models.Key]*models.RegistrationRecord
	alerts      []models.ComplianceAlert
	transitions map[uuid.UUID]struct{}
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:     make(map[models.Key]*models.RegistrationRecord),
		transitions: make(map[uuid.UUID]struct{}),
	}
}

// Find returns a copy of the record for key, or ErrNotFound.
func (s *InMemoryStore) Find(_ context.Context, key models.Key) (*models.RegistrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *models.RegistrationRecord) (*models.RegistrationRecord, error) {
	if err := validateFinal(record); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := mergeFinal(s.records[record.Key()], record)
	s.records[record.Key()] = merged
	return cloneRecord(merged), nil
}

func (s *InMemoryStore) EnqueuePending(_ context.Context, claim models.PendingClaim) (*models.EnqueueOutcome, error) {
	if claim.Key.RegistrationNumber == "" {
		return nil, errKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, transitioned := mergePending(s.records[claim.Key], claim, uuid.New(), uuid.New())
	s.records[claim.Key] = merged

	raised := false
	if transitioned {
		tid := *merged.PendingTransitionID
		if _, seen := s.transitions[tid]; !seen {
			s.transitions[tid] = struct{}{}
			s.alerts = append(s.alerts, newAlert(claim, merged.ID, tid))
			raised = true
		}
	}
	return &models.EnqueueOutcome{Record: cloneRecord(merged), AlertRaised: raised}, nil
}

// ListUnpublishedAlerts returns unpublished alerts in creation order.
func (s *InMemoryStore) ListUnpublishedAlerts(_ context.Context, limit int) ([]models.ComplianceAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ComplianceAlert
	for _, a := range s.alerts {
		if a.PublishedAt != nil {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkAlertsPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].PublishedAt == nil && slices.Contains(ids, s.alerts[i].ID) {
			published := at
			s.alerts[i].PublishedAt = &published
		}
	}
	return nil
}

// Alerts returns every alert ever raised, published or not.
func (s *InMemoryStore) Alerts() []models.ComplianceAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RunInTx calls fn directly; each InMemoryStore method is already atomic.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}
