// Package store persists disposal requests.
package store

import (
	"context"

	"custos/internal/disposal/models"
	id "custos/pkg/domain"
)

// Mutate applies a workflow transition to a request loaded under the store's
// lock. Returning an error aborts the transition and nothing is persisted.
type Mutate func(req *models.DisposalRequest) error

// CaseMutate applies a transition to one of a case's requests. Return false
// to leave the request untouched.
type CaseMutate func(req *models.DisposalRequest) (bool, error)

// Store persists disposal requests. All transitions go through Execute or
// ExecuteByCase so the read-validate-write cycle holds one lock: a mutex per
// store in memory, SELECT ... FOR UPDATE in postgres.
type Store interface {
	Create(ctx context.Context, req *models.DisposalRequest) error
	FindByID(ctx context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error)
	// FindActiveByCase returns the case's non-completed request, if any. The
	// eligibility scan uses it to stay idempotent: one active request per
	// case at a time.
	FindActiveByCase(ctx context.Context, caseID id.CaseID) (*models.DisposalRequest, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.DisposalRequest, error)
	// List returns requests, optionally filtered by status.
	List(ctx context.Context, status *models.Status) ([]*models.DisposalRequest, error)
	// Execute loads the request under a lock, applies mutate, and persists
	// the mutated request when mutate succeeds.
	Execute(ctx context.Context, disposalID id.DisposalID, mutate Mutate) (*models.DisposalRequest, error)
	// ExecuteByCase runs mutate over every request of the case under the
	// lock, persisting those for which mutate returned true. Returns the
	// changed requests.
	ExecuteByCase(ctx context.Context, caseID id.CaseID, mutate CaseMutate) ([]*models.DisposalRequest, error)
}
