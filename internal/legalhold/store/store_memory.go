package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"custos/internal/legalhold/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	holds map[id.HoldID]*models.LegalHold
}

func NewInMemory() *InMemory {
	return &InMemory{holds: make(map[id.HoldID]*models.LegalHold)}
}

func (s *InMemory) Create(_ context.Context, hold *models.LegalHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holds[hold.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *hold
	s.holds[hold.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, holdID id.HoldID) (*models.LegalHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holds[holdID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (s *InMemory) Release(_ context.Context, holdID id.HoldID, releasedBy string, now time.Time) (*models.LegalHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !h.Active {
		return nil, sentinel.ErrInvalidState
	}
	if err := h.ApplyRelease(releasedBy, now); err != nil {
		return nil, sentinel.ErrInvalidState
	}
	cp := *h
	return &cp, nil
}

func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.LegalHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LegalHold
	for _, h := range s.holds {
		if h.CaseID == caseID {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	return out, nil
}

func (s *InMemory) ActiveForCase(_ context.Context, caseID id.CaseID, now time.Time) ([]*models.LegalHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LegalHold
	for _, h := range s.holds {
		if h.CaseID == caseID && h.ActiveAt(now) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	return out, nil
}
