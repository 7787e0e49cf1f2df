// Package store persists retention policies.
package store

import (
	"context"
	"time"

	"custos/internal/retention/models"
	id "custos/pkg/domain"
)

// Store persists retention policies. CreateActive is the only activation
// path: it atomically deactivates any prior active policy for the case type
// and inserts the new one, so readers never observe two active policies for
// one type. Policies are never deleted.
type Store interface {
	// CreateActive inserts policy as the active policy for its case type,
	// deactivating the previous active policy (if any) in the same critical
	// section. Returns the deactivated predecessor, or nil.
	CreateActive(ctx context.Context, policy *models.RetentionPolicy, now time.Time) (*models.RetentionPolicy, error)
	// Deactivate marks a policy inactive. Fails with ErrInvalidState when it
	// already is.
	Deactivate(ctx context.Context, policyID id.PolicyID, now time.Time) (*models.RetentionPolicy, error)
	FindByID(ctx context.Context, policyID id.PolicyID) (*models.RetentionPolicy, error)
	ActiveForCaseType(ctx context.Context, caseType id.CaseType) (*models.RetentionPolicy, error)
	List(ctx context.Context, includeInactive bool) ([]*models.RetentionPolicy, error)
}
