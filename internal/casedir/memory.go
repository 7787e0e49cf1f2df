package casedir

import (
	"context"
	"sync"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// InMemory is a directory fake for development and tests. The real directory
// lives in the case-management system; this keeps the engine runnable without
// it.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.CaseID]CaseInfo
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]CaseInfo)}
}

// Put inserts or replaces a case record.
func (d *InMemory) Put(info CaseInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cases[info.ID] = info
}

func (d *InMemory) FindCase(_ context.Context, caseID id.CaseID) (CaseInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.cases[caseID]
	if !ok {
		return CaseInfo{}, sentinel.ErrNotFound
	}
	return info, nil
}

func (d *InMemory) ListClosedCases(_ context.Context) ([]CaseInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []CaseInfo
	for _, info := range d.cases {
		if info.Closed() {
			out = append(out, info)
		}
	}
	return out, nil
}
