package store

import (
	"context"
	"sort"
	"sync"

	"custos/internal/disposal/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// InMemory implements Store with one coarse mutex, so every Execute holds the
// same critical section the postgres FOR UPDATE gives per row.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.DisposalID]*models.DisposalRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.DisposalID]*models.DisposalRequest)}
}

func (s *InMemory) Create(_ context.Context, req *models.DisposalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, r := range s.requests {
		if r.CaseID == req.CaseID && !r.Status.Terminal() {
			return sentinel.ErrConflict
		}
	}
	cp := clone(req)
	s.requests[req.ID] = cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[disposalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) FindActiveByCase(_ context.Context, caseID id.CaseID) (*models.DisposalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.CaseID == caseID && !r.Status.Terminal() {
			return clone(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.DisposalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DisposalRequest
	for _, r := range s.requests {
		if r.CaseID == caseID {
			out = append(out, clone(r))
		}
	}
	sortByRequestedAt(out)
	return out, nil
}

func (s *InMemory) List(_ context.Context, status *models.Status) ([]*models.DisposalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DisposalRequest
	for _, r := range s.requests {
		if status == nil || r.Status == *status {
			out = append(out, clone(r))
		}
	}
	sortByRequestedAt(out)
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, disposalID id.DisposalID, mutate Mutate) (*models.DisposalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[disposalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Mutate a copy so a failed transition leaves the stored request intact.
	cp := clone(r)
	if err := mutate(cp); err != nil {
		return nil, err
	}
	s.requests[disposalID] = cp
	return clone(cp), nil
}

func (s *InMemory) ExecuteByCase(_ context.Context, caseID id.CaseID, mutate CaseMutate) ([]*models.DisposalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []*models.DisposalRequest
	for disposalID, r := range s.requests {
		if r.CaseID != caseID {
			continue
		}
		cp := clone(r)
		ok, err := mutate(cp)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s.requests[disposalID] = cp
		changed = append(changed, clone(cp))
	}
	sortByRequestedAt(changed)
	return changed, nil
}

func clone(r *models.DisposalRequest) *models.DisposalRequest {
	cp := *r
	if r.FirstApproval != nil {
		a := *r.FirstApproval
		cp.FirstApproval = &a
	}
	if r.SecondApproval != nil {
		a := *r.SecondApproval
		cp.SecondApproval = &a
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func sortByRequestedAt(rs []*models.DisposalRequest) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].RequestedAt.Before(rs[j].RequestedAt) })
}
