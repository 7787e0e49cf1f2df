// Package service manages the retention policy table.
package service

import (
	"context"
	"errors"
	"log/slog"

	"custos/internal/audit"
	"custos/internal/retention/models"
	"custos/internal/retention/store"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

type Service struct {
	store   store.Store
	auditor *audit.Publisher
	logger  *slog.Logger
}

func New(st store.Store, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: st, auditor: auditor, logger: logger}
}

// CreateRequest describes a new active policy for a case type.
type CreateRequest struct {
	CaseType             id.CaseType
	RetentionYears       int
	DisposalMethod       models.DisposalMethod
	RequiresDualApproval bool
}

// Create activates a new policy, atomically deactivating any prior active
// policy for the same case type. Disposal requests already issued keep the
// snapshot they were created with.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.RetentionPolicy, error) {
	now := requestcontext.Now(ctx)
	policy := &models.RetentionPolicy{
		ID:                   id.NewPolicyID(),
		CaseType:             req.CaseType,
		RetentionYears:       req.RetentionYears,
		DisposalMethod:       req.DisposalMethod,
		RequiresDualApproval: req.RequiresDualApproval,
		CreatedAt:            now,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	predecessor, err := s.store.CreateActive(ctx, policy, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodePolicyConflict,
				"another active policy exists for this case type")
		}
		return nil, translateStoreErr(err)
	}

	if predecessor != nil {
		s.logger.InfoContext(ctx, "retention policy superseded",
			"case_type", string(policy.CaseType),
			"old_policy_id", predecessor.ID.String(),
			"new_policy_id", policy.ID.String(),
		)
		if err := s.auditor.Emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionPolicyDeactivated,
			Reason:   "superseded by " + policy.ID.String(),
		}); err != nil {
			return nil, err
		}
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionPolicyActivated,
		Reason:   string(policy.CaseType),
	}); err != nil {
		return nil, err
	}

	return policy, nil
}

// Deactivate retires a policy without a replacement. Eligible cases of this
// type stop producing disposal requests until a new policy is activated.
func (s *Service) Deactivate(ctx context.Context, policyID id.PolicyID) (*models.RetentionPolicy, error) {
	policy, err := s.store.Deactivate(ctx, policyID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "policy is already inactive")
		}
		return nil, translateStoreErr(err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionPolicyDeactivated,
		Reason:   string(policy.CaseType),
	}); err != nil {
		return nil, err
	}
	return policy, nil
}

// Get returns the active policy for a case type; NotFound when none is.
func (s *Service) Get(ctx context.Context, caseType id.CaseType) (*models.RetentionPolicy, error) {
	policy, err := s.store.ActiveForCaseType(ctx, caseType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no active retention policy for case type %s", caseType)
		}
		return nil, translateStoreErr(err)
	}
	return policy, nil
}

// List returns policies, optionally including deactivated history.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]*models.RetentionPolicy, error) {
	policies, err := s.store.List(ctx, includeInactive)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return policies, nil
}

func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "retention policy not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "retention store unavailable")
	default:
		return err
	}
}
