package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custos/internal/audit"
	"custos/internal/casedir"
	"custos/internal/disposal/models"
	"custos/internal/disposal/service/mocks"
	"custos/internal/disposal/store"
	retention "custos/internal/retention/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

type DisposalServiceSuite struct {
	suite.Suite
	svc      *Service
	store    *store.InMemory
	cases    *casedir.InMemory
	policies *mocks.MockPolicySource
	holds    *mocks.MockHoldChecker
	evidence *mocks.MockEvidenceDisposer
	auditLog *audit.InMemoryStore
	ctx      context.Context
	now      time.Time
}

func (s *DisposalServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.cases = casedir.NewInMemory()
	s.policies = mocks.NewMockPolicySource(ctrl)
	s.holds = mocks.NewMockHoldChecker(ctrl)
	s.evidence = mocks.NewMockEvidenceDisposer(ctrl)
	s.auditLog = audit.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(
		s.store, s.cases, s.policies, s.holds, s.evidence,
		audit.NewPublisher(s.auditLog, nil, logger), logger, nil, nil, time.Minute,
	)
	s.now = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActor(context.Background(), "sgt.okafor")
	s.ctx = requestcontext.WithTime(s.ctx, s.now)
}

func TestDisposalServiceSuite(t *testing.T) {
	suite.Run(t, new(DisposalServiceSuite))
}

func (s *DisposalServiceSuite) tenYearPolicy(dual bool) *retention.RetentionPolicy {
	return &retention.RetentionPolicy{
		ID:                   id.NewPolicyID(),
		CaseType:             id.CaseTypeRansomware,
		RetentionYears:       10,
		DisposalMethod:       retention.MethodCryptographicErasure,
		RequiresDualApproval: dual,
		Active:               true,
	}
}

func (s *DisposalServiceSuite) closedCase(closedAt time.Time) casedir.CaseInfo {
	return casedir.CaseInfo{
		ID:       id.NewCaseID(),
		CaseType: id.CaseTypeRansomware,
		Status:   casedir.CaseStatusClosed,
		ClosedAt: &closedAt,
	}
}

// seedRequest inserts a pending request directly, bypassing the scan.
func (s *DisposalServiceSuite) seedRequest(policy *retention.RetentionPolicy) *models.DisposalRequest {
	req := &models.DisposalRequest{
		ID:          id.NewDisposalID(),
		CaseID:      id.NewCaseID(),
		Policy:      models.Snapshot(policy),
		EligibleAt:  s.now.AddDate(0, -1, 0),
		RequestedBy: "system",
		RequestedAt: s.now.AddDate(0, -1, 0),
		Status:      models.StatusPendingApproval,
	}
	s.Require().NoError(s.store.Create(context.Background(), req))
	return req
}

func (s *DisposalServiceSuite) atTime(t time.Time) context.Context {
	return requestcontext.WithTime(s.ctx, t)
}

func (s *DisposalServiceSuite) TestScanEligibilityBoundary() {
	// Closed 2015-01-01 under a ten-year policy: eligible exactly 2025-01-01.
	closed := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	s.cases.Put(s.closedCase(closed))
	s.policies.EXPECT().Get(gomock.Any(), id.CaseTypeRansomware).Return(s.tenYearPolicy(false), nil).AnyTimes()
	s.holds.EXPECT().IsHeld(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()

	s.Run("the day before the anniversary nothing is issued", func() {
		report, err := s.svc.Scan(s.atTime(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)))
		s.Require().NoError(err)
		s.Equal(1, report.CasesExamined)
		s.Zero(report.RequestsCreated)
	})

	s.Run("on the anniversary the request is issued", func() {
		report, err := s.svc.Scan(s.atTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
		s.Require().NoError(err)
		s.Equal(1, report.RequestsCreated)

		reqs, err := s.svc.List(s.ctx, nil)
		s.Require().NoError(err)
		s.Require().Len(reqs, 1)
		s.Equal(models.StatusPendingApproval, reqs[0].Status)
		s.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), reqs[0].EligibleAt)
		s.Equal(10, reqs[0].Policy.RetentionYears, "policy terms are snapshotted")
	})

	s.Run("a second scan is idempotent", func() {
		report, err := s.svc.Scan(s.ctx)
		s.Require().NoError(err)
		s.Zero(report.RequestsCreated)

		reqs, err := s.svc.List(s.ctx, nil)
		s.Require().NoError(err)
		s.Len(reqs, 1)
	})
}

func (s *DisposalServiceSuite) TestScanSkipsUnmatchedCases() {
	s.Run("no active policy", func() {
		s.cases.Put(s.closedCase(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
		s.policies.EXPECT().Get(gomock.Any(), id.CaseTypeRansomware).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "no active retention policy")).AnyTimes()

		report, err := s.svc.Scan(s.ctx)
		s.Require().NoError(err)
		s.Zero(report.RequestsCreated)
	})
}

func (s *DisposalServiceSuite) TestScanCreatesOnHoldForHeldCases() {
	c := s.closedCase(time.Date(2010, 5, 20, 0, 0, 0, 0, time.UTC))
	s.cases.Put(c)
	s.policies.EXPECT().Get(gomock.Any(), id.CaseTypeRansomware).Return(s.tenYearPolicy(false), nil)
	s.holds.EXPECT().IsHeld(gomock.Any(), c.ID).Return(true, nil)

	report, err := s.svc.Scan(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.RequestsCreated)
	s.Equal(1, report.CreatedOnHold)

	reqs, err := s.svc.ListByCase(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(reqs, 1)
	s.Equal(models.StatusOnHold, reqs[0].Status)
}

func (s *DisposalServiceSuite) TestApproveSingle() {
	req := s.seedRequest(s.tenYearPolicy(false))
	s.holds.EXPECT().IsHeld(gomock.Any(), req.CaseID).Return(false, nil)

	approved, err := s.svc.Approve(s.ctx, req.ID, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Require().NotNil(approved.FirstApproval)
	s.Equal("sgt.okafor", approved.FirstApproval.Actor)
}

func (s *DisposalServiceSuite) TestApproveDual() {
	req := s.seedRequest(s.tenYearPolicy(true))
	s.holds.EXPECT().IsHeld(gomock.Any(), req.CaseID).Return(false, nil).AnyTimes()

	first, err := s.svc.Approve(s.ctx, req.ID, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, first.Status)
	s.False(first.FullyApproved(), "dual approval waits for the countersignature")

	s.Run("one signature cannot begin destruction", func() {
		_, err := s.svc.Begin(s.ctx, req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeState))
	})

	s.Run("the same approver cannot countersign", func() {
		_, err := s.svc.Approve(s.ctx, req.ID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeState))
	})

	s.Run("a different approver completes the approval", func() {
		other := requestcontext.WithActor(s.ctx, "lt.moreau")
		second, err := s.svc.Approve(other, req.ID, "")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, second.Status)
		s.Require().NotNil(second.SecondApproval)
		s.Equal("lt.moreau", second.SecondApproval.Actor)
	})
}

func (s *DisposalServiceSuite) TestApproveBlockedByLiveHold() {
	req := s.seedRequest(s.tenYearPolicy(false))
	s.holds.EXPECT().IsHeld(gomock.Any(), req.CaseID).Return(true, nil)

	_, err := s.svc.Approve(s.ctx, req.ID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeHeld))

	// The rejection must not have advanced or mutated the request.
	got, err := s.svc.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, got.Status)
	s.Nil(got.FirstApproval)

	// Rejections land on the security audit trail.
	events := s.auditLog.All()
	s.Require().NotEmpty(events)
	last := events[len(events)-1]
	s.Equal(audit.ActionTransitionRejected, last.Action)
	s.Equal(audit.CategorySecurity, last.Category)
}

func (s *DisposalServiceSuite) TestCompleteFlow() {
	policy := s.tenYearPolicy(false)
	policy.DisposalMethod = retention.MethodPhysicalDestruction
	req := s.seedRequest(policy)
	s.holds.EXPECT().IsHeld(gomock.Any(), req.CaseID).Return(false, nil).AnyTimes()

	_, err := s.svc.Approve(s.ctx, req.ID, "")
	s.Require().NoError(err)
	_, err = s.svc.Begin(s.ctx, req.ID)
	s.Require().NoError(err)

	s.Run("physical destruction without a witness is rejected", func() {
		_, err := s.svc.Complete(s.ctx, CompleteRequest{DisposalID: req.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingWitness))

		got, err := s.svc.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, got.Status)
	})

	s.Run("with a witness the chains close", func() {
		s.evidence.EXPECT().MarkCaseDisposed(gomock.Any(), req.CaseID).Return(nil)

		done, err := s.svc.Complete(s.ctx, CompleteRequest{
			DisposalID: req.ID,
			Witness:    "insp.vargas",
			Notes:      "drives shredded on site",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, done.Status)
		s.Equal("insp.vargas", done.Witness)
		s.Equal("sgt.okafor", done.CompletedBy)
	})

	s.Run("a completed request takes no further transitions", func() {
		_, err := s.svc.Begin(s.ctx, req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeState))
	})
}

func (s *DisposalServiceSuite) TestHoldPushAndRecovery() {
	req := s.seedRequest(s.tenYearPolicy(true))
	s.holds.EXPECT().IsHeld(gomock.Any(), req.CaseID).Return(false, nil)

	// One signature lands before the hold.
	_, err := s.svc.Approve(s.ctx, req.ID, "")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.OnHoldPlaced(s.ctx, req.CaseID, "pending litigation"))
	held, err := s.svc.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusOnHold, held.Status)
	s.Equal("pending litigation", held.HoldNote)

	s.Require().NoError(s.svc.OnHoldReleased(s.ctx, req.CaseID))
	recovered, err := s.svc.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, recovered.Status)
	s.Nil(recovered.FirstApproval, "signatures gathered before the hold are void")
}

func (s *DisposalServiceSuite) TestUnknownRequest() {
	_, err := s.svc.Get(s.ctx, id.NewDisposalID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
