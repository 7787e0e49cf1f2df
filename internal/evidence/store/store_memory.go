package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"custos/internal/evidence/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// InMemory implements Store with a coarse lock. The postgres implementation
// locks per item row; here a single mutex gives the same atomicity for dev
// and tests.
type InMemory struct {
	mu      sync.RWMutex
	items   map[id.EvidenceID]*models.EvidenceItem
	ledgers map[id.EvidenceID][]*models.CustodyEntry
	entries map[id.EntryID]*models.CustodyEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		items:   make(map[id.EvidenceID]*models.EvidenceItem),
		ledgers: make(map[id.EvidenceID][]*models.CustodyEntry),
		entries: make(map[id.EntryID]*models.CustodyEntry),
	}
}

func (s *InMemory) CreateItem(_ context.Context, item *models.EvidenceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *InMemory) FindItem(_ context.Context, evidenceID id.EvidenceID) (*models.EvidenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *InMemory) ListItemsByCase(_ context.Context, caseID id.CaseID) ([]*models.EvidenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EvidenceItem
	for _, item := range s.items {
		if item.CaseID == caseID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) MarkDisposed(_ context.Context, caseID id.CaseID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.CaseID == caseID && !item.Disposed {
			item.Disposed = true
			t := at
			item.DisposedAt = &t
		}
	}
	return nil
}

func (s *InMemory) AppendEntry(_ context.Context, evidenceID id.EvidenceID, build BuildEntry) (*models.CustodyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	ledger := s.ledgers[evidenceID]
	var last *models.CustodyEntry
	if len(ledger) > 0 {
		cp := *ledger[len(ledger)-1]
		last = &cp
	}

	itemView := *item
	entry, err := build(&itemView, last)
	if err != nil {
		return nil, err
	}

	entry.EvidenceID = evidenceID
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if last != nil {
		entry.Seq = last.Seq + 1
	} else {
		entry.Seq = 1
	}

	s.ledgers[evidenceID] = append(ledger, entry)
	s.entries[entry.ID] = entry

	if entry.Action.MovesCustody() {
		item.CurrentCustodian = entry.ToCustodian
		if entry.Location != "" {
			item.CurrentLocation = entry.Location
		}
	}

	cp := *entry
	return &cp, nil
}

func (s *InMemory) History(_ context.Context, evidenceID id.EvidenceID) ([]*models.CustodyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.items[evidenceID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	ledger := s.ledgers[evidenceID]
	out := make([]*models.CustodyEntry, 0, len(ledger))
	for _, e := range ledger {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) FindEntry(_ context.Context, entryID id.EntryID) (*models.CustodyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *entry
	return &cp, nil
}
