// Package store persists evidence items and their custody ledgers.
//
// The ledger interface is structurally append-only: there is no update or
// delete method on any implementation, so an unbroken chain of custody is a
// property of the type system, not a runtime convention.
package store

import (
	"context"
	"time"

	"custos/internal/evidence/models"
	id "custos/pkg/domain"
)

// BuildEntry produces the entry to append given the locked item and the
// latest existing entry (nil for the first append). It runs inside the
// store's per-item critical section; returning an error aborts the append
// with no state change. Seq is assigned by the store after build succeeds.
type BuildEntry func(item *models.EvidenceItem, last *models.CustodyEntry) (*models.CustodyEntry, error)

// ItemStore manages evidence item records. Items are never deleted.
type ItemStore interface {
	CreateItem(ctx context.Context, item *models.EvidenceItem) error
	FindItem(ctx context.Context, evidenceID id.EvidenceID) (*models.EvidenceItem, error)
	ListItemsByCase(ctx context.Context, caseID id.CaseID) ([]*models.EvidenceItem, error)
	// MarkDisposed flags every item of the case as disposed. Idempotent.
	MarkDisposed(ctx context.Context, caseID id.CaseID, at time.Time) error
}

// Ledger is the append-only chain of custody. AppendEntry holds the per-item
// lock across sequence assignment, the entry insert, and the item's
// current-custodian update, so two concurrent appends can neither share a
// sequence number nor leave the denormalized view stale.
type Ledger interface {
	AppendEntry(ctx context.Context, evidenceID id.EvidenceID, build BuildEntry) (*models.CustodyEntry, error)
	History(ctx context.Context, evidenceID id.EvidenceID) ([]*models.CustodyEntry, error)
	FindEntry(ctx context.Context, entryID id.EntryID) (*models.CustodyEntry, error)
}

// Store is the full evidence persistence surface.
type Store interface {
	ItemStore
	Ledger
}
