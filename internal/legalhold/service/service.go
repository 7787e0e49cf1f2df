// Package service manages the legal hold registry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/audit"
	"custos/internal/legalhold/models"
	"custos/internal/legalhold/store"
	"custos/internal/platform/metrics"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// WorkflowNotifier lets the hold registry push disposal workflow transitions
// when a case's hold status changes. The disposal service implements it.
type WorkflowNotifier interface {
	// OnHoldPlaced moves the case's in-flight disposal requests to ON_HOLD.
	OnHoldPlaced(ctx context.Context, caseID id.CaseID, reason string) error
	// OnHoldReleased recovers the case's ON_HOLD requests when no other hold
	// remains active.
	OnHoldReleased(ctx context.Context, caseID id.CaseID) error
}

type Service struct {
	store    store.Store
	workflow WorkflowNotifier
	auditor  *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(st store.Store, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		auditor: auditor,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("custos/legalhold"),
	}
}

// SetWorkflowNotifier binds the disposal workflow after construction. The
// hold registry and the workflow reference each other, so one side binds
// late; without a notifier holds still take effect through the live checks.
func (s *Service) SetWorkflowNotifier(workflow WorkflowNotifier) {
	s.workflow = workflow
}

// PlaceRequest describes a new hold on a case.
type PlaceRequest struct {
	CaseID    id.CaseID
	Reason    string
	ExpiresAt *time.Time
}

// Place registers a hold and pushes the case's in-flight disposal requests to
// ON_HOLD. Multiple holds may be active on one case at once.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*models.LegalHold, error) {
	ctx, span := s.tracer.Start(ctx, "legalhold.Place",
		trace.WithAttributes(attribute.String("case_id", req.CaseID.String())))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "placing actor is required")
	}

	hold := &models.LegalHold{
		ID:        id.NewHoldID(),
		CaseID:    req.CaseID,
		Reason:    req.Reason,
		PlacedBy:  actor,
		PlacedAt:  requestcontext.Now(ctx),
		ExpiresAt: req.ExpiresAt,
		Active:    true,
	}
	if err := hold.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, hold); err != nil {
		return nil, translateStoreErr(err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionHoldPlaced,
		CaseID:   hold.CaseID.String(),
		Reason:   hold.Reason,
	}); err != nil {
		return nil, err
	}
	s.metrics.IncHoldPlaced()

	if s.workflow != nil {
		if err := s.workflow.OnHoldPlaced(ctx, hold.CaseID, hold.Reason); err != nil {
			// The hold itself is in force regardless; the live re-check on
			// every destructive transition catches requests this push missed.
			s.logger.ErrorContext(ctx, "failed to push disposal requests to on-hold",
				"case_id", hold.CaseID.String(), "error", err.Error())
		}
	}

	s.logger.InfoContext(ctx, "legal hold placed",
		"hold_id", hold.ID.String(), "case_id", hold.CaseID.String())
	return hold, nil
}

// Release lifts a hold. If the case has no other active hold, the disposal
// workflow recovers its ON_HOLD requests.
func (s *Service) Release(ctx context.Context, holdID id.HoldID) (*models.LegalHold, error) {
	ctx, span := s.tracer.Start(ctx, "legalhold.Release",
		trace.WithAttributes(attribute.String("hold_id", holdID.String())))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "releasing actor is required")
	}
	now := requestcontext.Now(ctx)

	hold, err := s.store.Release(ctx, holdID, actor, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeState, "hold is already released")
		}
		return nil, translateStoreErr(err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionHoldReleased,
		CaseID:   hold.CaseID.String(),
		Reason:   hold.Reason,
	}); err != nil {
		return nil, err
	}
	s.metrics.IncHoldReleased()

	remaining, err := s.store.ActiveForCase(ctx, hold.CaseID, now)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if len(remaining) == 0 && s.workflow != nil {
		if err := s.workflow.OnHoldReleased(ctx, hold.CaseID); err != nil {
			s.logger.ErrorContext(ctx, "failed to recover on-hold disposal requests",
				"case_id", hold.CaseID.String(), "error", err.Error())
		}
	}

	s.logger.InfoContext(ctx, "legal hold released",
		"hold_id", hold.ID.String(), "case_id", hold.CaseID.String())
	return hold, nil
}

// IsHeld reports whether any hold blocks disposal for the case right now.
// Expired holds do not count even before a release is recorded.
func (s *Service) IsHeld(ctx context.Context, caseID id.CaseID) (bool, error) {
	active, err := s.store.ActiveForCase(ctx, caseID, requestcontext.Now(ctx))
	if err != nil {
		return false, translateStoreErr(err)
	}
	return len(active) > 0, nil
}

// Get returns a single hold by id.
func (s *Service) Get(ctx context.Context, holdID id.HoldID) (*models.LegalHold, error) {
	hold, err := s.store.FindByID(ctx, holdID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return hold, nil
}

// ListByCase returns every hold ever placed on the case, released included.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.LegalHold, error) {
	holds, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return holds, nil
}

func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "legal hold not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "legal hold already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "legal hold store unavailable")
	default:
		return err
	}
}
