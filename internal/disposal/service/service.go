// Package service runs the disposal workflow: the eligibility scan that
// issues requests and the approval state machine that walks them to
// completion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"custos/internal/audit"
	"custos/internal/casedir"
	"custos/internal/disposal/models"
	"custos/internal/disposal/store"
	"custos/internal/platform/metrics"
	redisplat "custos/internal/platform/redis"
	retention "custos/internal/retention/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// scanLockKey guards the eligibility scan across replicas.
const scanLockKey = "custos:eligibility-scan:lock"

// scanConcurrency bounds parallel case evaluation during a scan.
const scanConcurrency = 8

// PolicySource resolves the active retention policy for a case type. The
// retention service implements it.
type PolicySource interface {
	Get(ctx context.Context, caseType id.CaseType) (*retention.RetentionPolicy, error)
}

// HoldChecker answers whether a case is currently under legal hold. The
// legal hold service implements it.
type HoldChecker interface {
	IsHeld(ctx context.Context, caseID id.CaseID) (bool, error)
}

// EvidenceDisposer closes the custody chains of a case once its disposal
// completes. The evidence service implements it.
type EvidenceDisposer interface {
	MarkCaseDisposed(ctx context.Context, caseID id.CaseID) error
}

type Service struct {
	store    store.Store
	cases    casedir.Directory
	policies PolicySource
	holds    HoldChecker
	evidence EvidenceDisposer
	auditor  *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	redis    *redisplat.Client
	lockTTL  time.Duration
	tracer   trace.Tracer
}

func New(
	st store.Store,
	cases casedir.Directory,
	policies PolicySource,
	holds HoldChecker,
	evidence EvidenceDisposer,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	redis *redisplat.Client,
	lockTTL time.Duration,
) *Service {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &Service{
		store:    st,
		cases:    cases,
		policies: policies,
		holds:    holds,
		evidence: evidence,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
		redis:    redis,
		lockTTL:  lockTTL,
		tracer:   otel.Tracer("custos/disposal"),
	}
}

// ScanReport summarizes one eligibility scan run.
type ScanReport struct {
	CasesExamined   int `json:"cases_examined"`
	RequestsCreated int `json:"requests_created"`
	CreatedOnHold   int `json:"created_on_hold"`
}

// Scan walks closed cases and issues a disposal request for each one whose
// retention period has elapsed. Safe to re-run: a case with any existing
// request, in-flight or completed, is skipped. Cases under legal hold get
// their request created directly in ON_HOLD so the obligation is visible.
//
// When Redis is configured, a SetNX lock keeps concurrent replicas from
// scanning at once; a second caller gets a conflict.
func (s *Service) Scan(ctx context.Context) (*ScanReport, error) {
	ctx, span := s.tracer.Start(ctx, "disposal.Scan")
	defer span.End()

	release, err := s.acquireScanLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		actor = "system"
	}

	closed, err := s.cases.ListClosedCases(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "case directory unavailable")
	}

	var (
		mu     sync.Mutex
		report = ScanReport{CasesExamined: len(closed)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, c := range closed {
		g.Go(func() error {
			created, onHold, err := s.evaluateCase(gctx, c, actor, now)
			if err != nil {
				return err
			}
			if created {
				mu.Lock()
				report.RequestsCreated++
				if onHold {
					report.CreatedOnHold++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionScanRun,
		Decision: "completed",
	}); err != nil {
		return nil, err
	}
	s.metrics.IncScan()

	s.logger.InfoContext(ctx, "eligibility scan finished",
		"cases_examined", report.CasesExamined,
		"requests_created", report.RequestsCreated,
		"created_on_hold", report.CreatedOnHold,
	)
	return &report, nil
}

// evaluateCase issues a disposal request for one closed case if its retention
// period has elapsed and it has no request yet.
func (s *Service) evaluateCase(ctx context.Context, c casedir.CaseInfo, actor string, now time.Time) (created, onHold bool, err error) {
	if !c.Closed() {
		return false, false, nil
	}

	existing, err := s.store.ListByCase(ctx, c.ID)
	if err != nil {
		return false, false, translateStoreErr(err)
	}
	// A completed request means the evidence is gone; an in-flight one means
	// the workflow is already underway. Either way, nothing to issue.
	if len(existing) > 0 {
		return false, false, nil
	}

	policy, err := s.policies.Get(ctx, c.CaseType)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// No active policy for this case type; the case waits.
			return false, false, nil
		}
		return false, false, err
	}

	// Retention runs in calendar years from case closure, so a case closed
	// 2015-01-01 under a ten-year policy becomes eligible 2025-01-01.
	eligibleAt := c.ClosedAt.AddDate(policy.RetentionYears, 0, 0)
	if now.Before(eligibleAt) {
		return false, false, nil
	}

	req := &models.DisposalRequest{
		ID:          id.NewDisposalID(),
		CaseID:      c.ID,
		Policy:      models.Snapshot(policy),
		EligibleAt:  eligibleAt,
		RequestedBy: actor,
		RequestedAt: now,
		Status:      models.StatusPendingApproval,
	}

	held, err := s.holds.IsHeld(ctx, c.ID)
	if err != nil {
		return false, false, err
	}
	if held {
		req.Status = models.StatusOnHold
		req.HoldNote = "case under legal hold at request creation"
	}

	if err := s.store.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent scan got there first.
			return false, false, nil
		}
		return false, false, translateStoreErr(err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionRequestCreated,
		CaseID:     c.ID.String(),
		DisposalID: req.ID.String(),
		Decision:   string(req.Status),
	}); err != nil {
		return false, false, err
	}
	s.metrics.IncRequestCreated()

	return true, held, nil
}

func (s *Service) acquireScanLock(ctx context.Context) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}
	ok, err := s.redis.SetNX(ctx, scanLockKey, requestcontext.RequestID(ctx), s.lockTTL).Result()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scan lock unavailable")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeConflict, "an eligibility scan is already running")
	}
	return func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), scanLockKey).Err(); err != nil {
			s.logger.WarnContext(ctx, "failed to release scan lock", "error", err.Error())
		}
	}, nil
}

// Approve records one approval signature. Under a single-approval policy the
// request moves straight to APPROVED; under dual approval the first signature
// is held until a different approver countersigns. The case's hold status is
// re-checked inside the transition so a hold placed moments ago still blocks.
// A witness named here is stored on the request and satisfies the completion
// rule later.
func (s *Service) Approve(ctx context.Context, disposalID id.DisposalID, witness string) (*models.DisposalRequest, error) {
	ctx, span := s.tracer.Start(ctx, "disposal.Approve",
		trace.WithAttributes(attribute.String("disposal_id", disposalID.String())))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "approvals require an authenticated actor")
	}
	now := requestcontext.Now(ctx)

	req, err := s.transition(ctx, disposalID, func(r *models.DisposalRequest) error {
		if err := s.rejectIfHeld(ctx, r.CaseID); err != nil {
			return err
		}
		if err := r.ApplyApproval(actor, now); err != nil {
			return err
		}
		if witness != "" {
			r.Witness = witness
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	decision := "awaiting_countersignature"
	if req.FullyApproved() {
		decision = "approved"
		s.metrics.IncDisposalTransition(string(models.StatusApproved))
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionRequestApproved,
		CaseID:     req.CaseID.String(),
		DisposalID: req.ID.String(),
		Decision:   decision,
	}); err != nil {
		return nil, err
	}
	return req, nil
}

// Begin moves an approved request into IN_PROGRESS, marking that destruction
// has physically started.
func (s *Service) Begin(ctx context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error) {
	ctx, span := s.tracer.Start(ctx, "disposal.Begin",
		trace.WithAttributes(attribute.String("disposal_id", disposalID.String())))
	defer span.End()

	if requestcontext.Actor(ctx) == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "workflow transitions require an authenticated actor")
	}

	req, err := s.transition(ctx, disposalID, func(r *models.DisposalRequest) error {
		if err := s.rejectIfHeld(ctx, r.CaseID); err != nil {
			return err
		}
		return r.ApplyBegin()
	})
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionRequestBegun,
		CaseID:     req.CaseID.String(),
		DisposalID: req.ID.String(),
	}); err != nil {
		return nil, err
	}
	s.metrics.IncDisposalTransition(string(models.StatusInProgress))
	return req, nil
}

// CompleteRequest finishes a disposal.
type CompleteRequest struct {
	DisposalID id.DisposalID
	// Witness is mandatory for physical destruction.
	Witness string
	Notes   string
}

// Complete records that destruction finished and closes the custody chain of
// every evidence item in the case. The hold status is re-checked one last
// time before the terminal transition.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*models.DisposalRequest, error) {
	ctx, span := s.tracer.Start(ctx, "disposal.Complete",
		trace.WithAttributes(attribute.String("disposal_id", req.DisposalID.String())))
	defer span.End()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "completion requires an authenticated actor")
	}
	now := requestcontext.Now(ctx)

	done, err := s.transition(ctx, req.DisposalID, func(r *models.DisposalRequest) error {
		if err := s.rejectIfHeld(ctx, r.CaseID); err != nil {
			return err
		}
		return r.ApplyCompletion(actor, req.Witness, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.evidence.MarkCaseDisposed(ctx, done.CaseID); err != nil {
		// The workflow is terminal but the chains stayed open; loud failure
		// so an operator reconciles.
		s.logger.ErrorContext(ctx, "disposal completed but custody chains not closed",
			"case_id", done.CaseID.String(), "error", err.Error())
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionRequestCompleted,
		CaseID:     done.CaseID.String(),
		DisposalID: done.ID.String(),
		Decision:   string(done.Policy.DisposalMethod),
		Reason:     req.Notes,
	}); err != nil {
		return nil, err
	}
	s.metrics.IncDisposalTransition(string(models.StatusCompleted))

	s.logger.InfoContext(ctx, "disposal completed",
		"disposal_id", done.ID.String(),
		"case_id", done.CaseID.String(),
		"method", string(done.Policy.DisposalMethod),
	)
	return done, nil
}

// OnHoldPlaced pushes every in-flight request of the case to ON_HOLD. Called
// by the legal hold service when a hold lands.
func (s *Service) OnHoldPlaced(ctx context.Context, caseID id.CaseID, reason string) error {
	changed, err := s.store.ExecuteByCase(ctx, caseID, func(r *models.DisposalRequest) (bool, error) {
		return r.ApplyHold(reason), nil
	})
	if err != nil {
		return translateStoreErr(err)
	}
	for _, r := range changed {
		if err := s.auditor.Emit(ctx, audit.Event{
			Category:   audit.CategoryCompliance,
			Action:     audit.ActionRequestOnHold,
			CaseID:     caseID.String(),
			DisposalID: r.ID.String(),
			Reason:     reason,
		}); err != nil {
			return err
		}
		s.metrics.IncDisposalTransition(string(models.StatusOnHold))
	}
	return nil
}

// OnHoldReleased recovers the case's ON_HOLD requests to PENDING_APPROVAL.
// Approvals collected before the hold are discarded with the recovery.
func (s *Service) OnHoldReleased(ctx context.Context, caseID id.CaseID) error {
	changed, err := s.store.ExecuteByCase(ctx, caseID, func(r *models.DisposalRequest) (bool, error) {
		if r.Status != models.StatusOnHold {
			return false, nil
		}
		if err := r.ApplyRecovery(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return translateStoreErr(err)
	}
	for _, r := range changed {
		if err := s.auditor.Emit(ctx, audit.Event{
			Category:   audit.CategoryCompliance,
			Action:     audit.ActionRequestRecovered,
			CaseID:     caseID.String(),
			DisposalID: r.ID.String(),
		}); err != nil {
			return err
		}
		s.metrics.IncDisposalTransition(string(models.StatusPendingApproval))
	}
	return nil
}

// Get returns one disposal request.
func (s *Service) Get(ctx context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error) {
	req, err := s.store.FindByID(ctx, disposalID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return req, nil
}

// List returns disposal requests, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *models.Status) ([]*models.DisposalRequest, error) {
	reqs, err := s.store.List(ctx, status)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return reqs, nil
}

// ListByCase returns a case's disposal requests, oldest first.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.DisposalRequest, error) {
	reqs, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return reqs, nil
}

// ActiveForCase returns the case's in-flight request, if any.
func (s *Service) ActiveForCase(ctx context.Context, caseID id.CaseID) (*models.DisposalRequest, error) {
	req, err := s.store.FindActiveByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return req, nil
}

// transition runs one state machine step under the store's lock, recording
// rejections on the audit trail and metrics before surfacing them.
func (s *Service) transition(ctx context.Context, disposalID id.DisposalID, mutate store.Mutate) (*models.DisposalRequest, error) {
	req, err := s.store.Execute(ctx, disposalID, mutate)
	if err == nil {
		return req, nil
	}
	err = translateStoreErr(err)

	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeState, dErrors.CodeHeld, dErrors.CodeMissingWitness:
		s.metrics.IncDisposalRejection(string(code))
		if auditErr := s.auditor.Emit(ctx, audit.Event{
			Category:   audit.CategorySecurity,
			Action:     audit.ActionTransitionRejected,
			DisposalID: disposalID.String(),
			Decision:   string(code),
			Reason:     err.Error(),
		}); auditErr != nil {
			s.logger.ErrorContext(ctx, "failed to audit rejected transition",
				"disposal_id", disposalID.String(), "error", auditErr.Error())
		}
	}
	return nil, err
}

// rejectIfHeld is the live hold check run inside every destructive
// transition. The request's stored status may predate a hold placed after
// the last workflow push.
func (s *Service) rejectIfHeld(ctx context.Context, caseID id.CaseID) error {
	held, err := s.holds.IsHeld(ctx, caseID)
	if err != nil {
		return err
	}
	if held {
		return dErrors.New(dErrors.CodeHeld, "case is under an active legal hold")
	}
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "disposal request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "case already has an active disposal request")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "disposal store unavailable")
	default:
		return err
	}
}
