// Package store persists legal holds.
package store

import (
	"context"
	"time"

	"custos/internal/legalhold/models"
	id "custos/pkg/domain"
)

// Store persists legal holds. Released holds are kept for the record; nothing
// is ever deleted.
type Store interface {
	Create(ctx context.Context, hold *models.LegalHold) error
	FindByID(ctx context.Context, holdID id.HoldID) (*models.LegalHold, error)
	// Release marks the hold inactive. ErrInvalidState when already released.
	Release(ctx context.Context, holdID id.HoldID, releasedBy string, now time.Time) (*models.LegalHold, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.LegalHold, error)
	// ActiveForCase returns the holds that block disposal for the case at the
	// given instant, i.e. unreleased and unexpired.
	ActiveForCase(ctx context.Context, caseID id.CaseID, now time.Time) ([]*models.LegalHold, error)
}
