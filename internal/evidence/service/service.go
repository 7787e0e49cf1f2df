// Package service implements the custody ledger operations: intake, append,
// correction, history replay, and hash verification.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/audit"
	"custos/internal/evidence/models"
	"custos/internal/evidence/store"
	"custos/internal/platform/metrics"
	"custos/pkg/digest"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Service coordinates the evidence store, the hash verifier, and the audit
// trail. Custody mutations are fail-closed on audit: an append that cannot be
// audited is rolled back to the caller as a failure.
type Service struct {
	store   store.Store
	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(st store.Store, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		auditor: auditor,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("custos/evidence"),
	}
}

// IntakeRequest describes a new evidence item entering custody.
type IntakeRequest struct {
	CaseID      id.CaseID
	Description string
	Custodian   string
	Location    string
	Purpose     string
	// Content is the evidence byte stream; digested at intake. Optional: some
	// physical evidence has no digital content to hash.
	Content io.Reader
}

// Intake registers an item and appends its COLLECTION entry. The item's
// digest is computed from Content before anything is persisted.
func (s *Service) Intake(ctx context.Context, req IntakeRequest) (*models.EvidenceItem, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.Intake")
	defer span.End()

	if req.CaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	if req.Custodian == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "collecting custodian is required")
	}
	if req.Description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}

	now := requestcontext.Now(ctx)
	item := &models.EvidenceItem{
		ID:               id.NewEvidenceID(),
		CaseID:           req.CaseID,
		Description:      req.Description,
		CurrentCustodian: req.Custodian,
		CurrentLocation:  req.Location,
		CreatedAt:        now,
	}

	if req.Content != nil {
		d, err := digest.Compute(req.Content)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "evidence content unreadable")
		}
		item.Digest = &d
		item.DigestAlg = digest.Algorithm
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, translateStoreErr(err)
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = "initial collection"
	}
	entry := &models.CustodyEntry{
		Action:      models.ActionCollection,
		ToCustodian: req.Custodian,
		Location:    req.Location,
		Timestamp:   now,
		Purpose:     purpose,
		RecordedBy:  requestcontext.Actor(ctx),
		RecordedAt:  now,
	}
	if _, err := s.append(ctx, item.ID, entry); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionEvidenceIntake,
		CaseID:     req.CaseID.String(),
		EvidenceID: item.ID.String(),
	}); err != nil {
		return nil, err
	}

	return item, nil
}

// AppendRequest describes one custody handoff.
type AppendRequest struct {
	EvidenceID    id.EvidenceID
	Action        models.Action
	FromCustodian string
	ToCustodian   string
	Location      string
	Timestamp     time.Time
	Purpose       string
	Notes         string
}

// Append adds one entry to the chain of custody. Rejects timestamps earlier
// than the latest entry (custody time is monotonic per item) and assigns the
// next sequence number atomically with the current-custodian update.
func (s *Service) Append(ctx context.Context, req AppendRequest) (*models.CustodyEntry, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.Append")
	defer span.End()

	if req.Action == models.ActionCorrection {
		return nil, dErrors.New(dErrors.CodeValidation, "corrections go through the correct operation, not append")
	}

	now := requestcontext.Now(ctx)
	entry := &models.CustodyEntry{
		Action:        req.Action,
		FromCustodian: req.FromCustodian,
		ToCustodian:   req.ToCustodian,
		Location:      req.Location,
		Timestamp:     req.Timestamp,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
		RecordedBy:    requestcontext.Actor(ctx),
		RecordedAt:    now,
	}
	entry.EvidenceID = req.EvidenceID
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	appended, err := s.append(ctx, req.EvidenceID, entry)
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionCustodyAppended,
		EvidenceID: req.EvidenceID.String(),
		Reason:     string(req.Action),
	}); err != nil {
		return nil, err
	}

	s.metrics.IncCustodyAppend(string(req.Action))
	return appended, nil
}

// CorrectRequest annotates an erroneous entry. The original is never edited
// or removed.
type CorrectRequest struct {
	OriginalEntryID id.EntryID
	ToCustodian     string
	Location        string
	Purpose         string
	Notes           string
}

// Correct appends a CORRECTION entry referencing the original. The corrected
// fields describe what the original should have said; the current-custodian
// pointer is not moved.
func (s *Service) Correct(ctx context.Context, req CorrectRequest) (*models.CustodyEntry, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.Correct")
	defer span.End()

	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "corrections require an authenticated actor")
	}
	if req.Purpose == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "correction purpose is required")
	}

	original, err := s.store.FindEntry(ctx, req.OriginalEntryID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if original.Action == models.ActionCorrection {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot correct a correction; reference the original entry")
	}

	now := requestcontext.Now(ctx)
	originalID := original.ID
	entry := &models.CustodyEntry{
		EvidenceID:  original.EvidenceID,
		Action:      models.ActionCorrection,
		ToCustodian: req.ToCustodian,
		Location:    req.Location,
		Timestamp:   now,
		Purpose:     req.Purpose,
		Notes:       req.Notes,
		Supersedes:  &originalID,
		RecordedBy:  actor,
		RecordedAt:  now,
	}
	if entry.ToCustodian == "" {
		// A correction may amend only notes/location; custody stays put.
		entry.ToCustodian = original.ToCustodian
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	appended, err := s.append(ctx, original.EvidenceID, entry)
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionCustodyCorrected,
		EvidenceID: original.EvidenceID.String(),
		Reason:     req.Purpose,
	}); err != nil {
		return nil, err
	}

	s.metrics.IncCustodyAppend(string(models.ActionCorrection))
	return appended, nil
}

// append runs the ledger append under the store's per-item critical section,
// enforcing timestamp monotonicity against the latest entry.
func (s *Service) append(ctx context.Context, evidenceID id.EvidenceID, entry *models.CustodyEntry) (*models.CustodyEntry, error) {
	appended, err := s.store.AppendEntry(ctx, evidenceID, func(item *models.EvidenceItem, last *models.CustodyEntry) (*models.CustodyEntry, error) {
		if item.Disposed {
			return nil, dErrors.New(dErrors.CodeState, "evidence has been disposed; custody chain is closed")
		}
		if last != nil && entry.Timestamp.Before(last.Timestamp) {
			return nil, dErrors.Newf(dErrors.CodeOrderingViolation,
				"entry timestamp %s precedes latest ledger timestamp %s",
				entry.Timestamp.Format(time.RFC3339), last.Timestamp.Format(time.RFC3339))
		}
		return entry, nil
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return appended, nil
}

// History replays the full chain of custody in sequence order.
func (s *Service) History(ctx context.Context, evidenceID id.EvidenceID) ([]*models.CustodyEntry, error) {
	entries, err := s.store.History(ctx, evidenceID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return entries, nil
}

// Get returns one evidence item.
func (s *Service) Get(ctx context.Context, evidenceID id.EvidenceID) (*models.EvidenceItem, error) {
	item, err := s.store.FindItem(ctx, evidenceID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return item, nil
}

// ListByCase returns a case's evidence items, oldest first.
func (s *Service) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.EvidenceItem, error) {
	items, err := s.store.ListItemsByCase(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return items, nil
}

// VerifyHash recomputes the digest of content and compares it against the
// stored digest, recording the outcome on the audit trail. Both digests are
// returned for display regardless of outcome.
func (s *Service) VerifyHash(ctx context.Context, evidenceID id.EvidenceID, content io.Reader) (digest.Verification, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.VerifyHash")
	defer span.End()

	item, err := s.store.FindItem(ctx, evidenceID)
	if err != nil {
		return digest.Verification{}, translateStoreErr(err)
	}
	if item.Digest == nil {
		return digest.Verification{}, dErrors.New(dErrors.CodeState, "no digest recorded for this evidence")
	}

	v, err := digest.Verify(*item.Digest, content)
	if err != nil {
		return digest.Verification{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "evidence content unreadable")
	}

	outcome := "match"
	category := audit.CategoryOperations
	if !v.Match {
		outcome = "mismatch"
		category = audit.CategorySecurity
		s.logger.WarnContext(ctx, "evidence hash mismatch",
			"evidence_id", evidenceID.String(),
			"stored", v.Stored.String(),
			"computed", v.Computed.String(),
		)
	}
	s.metrics.IncHashVerification(outcome)

	if err := s.auditor.Emit(ctx, audit.Event{
		Category:   category,
		Action:     audit.ActionHashVerified,
		CaseID:     item.CaseID.String(),
		EvidenceID: evidenceID.String(),
		Decision:   outcome,
	}); err != nil {
		return digest.Verification{}, err
	}

	return v, nil
}

// MarkCaseDisposed closes the custody chain for every item of the case. Called
// by the disposal workflow on completion.
func (s *Service) MarkCaseDisposed(ctx context.Context, caseID id.CaseID) error {
	if err := s.store.MarkDisposed(ctx, caseID, requestcontext.Now(ctx)); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "evidence record not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "evidence record already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "evidence store unavailable")
	default:
		return err
	}
}
