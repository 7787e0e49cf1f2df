package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"custos/internal/retention/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// InMemory implements Store with a coarse lock; the activation swap happens
// under one mutex hold, mirroring the postgres transaction.
type InMemory struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*models.RetentionPolicy
}

func NewInMemory() *InMemory {
	return &InMemory{policies: make(map[id.PolicyID]*models.RetentionPolicy)}
}

func (s *InMemory) CreateActive(_ context.Context, policy *models.RetentionPolicy, now time.Time) (*models.RetentionPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.policies[policy.ID]; exists {
		return nil, sentinel.ErrConflict
	}

	var predecessor *models.RetentionPolicy
	for _, p := range s.policies {
		if p.CaseType == policy.CaseType && p.Active {
			p.ApplyDeactivation(now)
			cp := *p
			predecessor = &cp
			break
		}
	}

	cp := *policy
	cp.Active = true
	s.policies[policy.ID] = &cp
	*policy = cp
	return predecessor, nil
}

func (s *InMemory) Deactivate(_ context.Context, policyID id.PolicyID, now time.Time) (*models.RetentionPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !p.Active {
		return nil, sentinel.ErrInvalidState
	}
	p.ApplyDeactivation(now)
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByID(_ context.Context, policyID id.PolicyID) (*models.RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) ActiveForCaseType(_ context.Context, caseType id.CaseType) (*models.RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.policies {
		if p.CaseType == caseType && p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, includeInactive bool) ([]*models.RetentionPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RetentionPolicy
	for _, p := range s.policies {
		if p.Active || includeInactive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
