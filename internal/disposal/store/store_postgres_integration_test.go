//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/disposal/models"
	"custos/internal/disposal/store"
	retention "custos/internal/retention/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/testutil/containers"
)

type PostgresRequestSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	ctx      context.Context
}

func TestPostgresRequestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRequestSuite))
}

func (s *PostgresRequestSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresRequestSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresRequestSuite) newRequest(caseID id.CaseID) *models.DisposalRequest {
	now := time.Now().UTC()
	return &models.DisposalRequest{
		ID:     id.NewDisposalID(),
		CaseID: caseID,
		Policy: models.PolicySnapshot{
			PolicyID:             id.NewPolicyID(),
			CaseType:             id.CaseTypeFraud,
			RetentionYears:       7,
			DisposalMethod:       retention.MethodSecureDelete,
			RequiresDualApproval: false,
		},
		EligibleAt:  now,
		RequestedBy: "system",
		RequestedAt: now,
		Status:      models.StatusPendingApproval,
	}
}

// TestConcurrentCreateOneWinner: many replicas scanning at once must produce
// exactly one open request per case. The partial unique index is the arbiter.
func (s *PostgresRequestSuite) TestConcurrentCreateOneWinner() {
	caseID := id.NewCaseID()
	const writers = 30

	var wg sync.WaitGroup
	var created, conflicted atomic.Int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(s.ctx, s.newRequest(caseID))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load(), "exactly one create should win")
	s.Equal(int32(writers-1), conflicted.Load())

	reqs, err := s.store.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)
	s.Len(reqs, 1)
}

func (s *PostgresRequestSuite) TestCompletedRequestDoesNotBlockNewOnes() {
	caseID := id.NewCaseID()
	first := s.newRequest(caseID)
	s.Require().NoError(s.store.Create(s.ctx, first))

	now := time.Now().UTC()
	_, err := s.store.Execute(s.ctx, first.ID, func(r *models.DisposalRequest) error {
		if err := r.ApplyApproval("sgt.okafor", now); err != nil {
			return err
		}
		if err := r.ApplyBegin(); err != nil {
			return err
		}
		return r.ApplyCompletion("tech.ng", "", now)
	})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Create(s.ctx, s.newRequest(caseID)))

	reqs, err := s.store.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)
	s.Len(reqs, 2)
}

// TestFailedMutatePersistsNothing: a transition the state machine rejects must
// roll back, leaving the stored row exactly as it was.
func (s *PostgresRequestSuite) TestFailedMutatePersistsNothing() {
	req := s.newRequest(id.NewCaseID())
	req.Policy.RequiresDualApproval = true
	s.Require().NoError(s.store.Create(s.ctx, req))

	now := time.Now().UTC()
	_, err := s.store.Execute(s.ctx, req.ID, func(r *models.DisposalRequest) error {
		// Mutate first, then fail, to prove the write is discarded.
		if err := r.ApplyApproval("sgt.okafor", now); err != nil {
			return err
		}
		// One of two signatures cannot begin destruction.
		return r.ApplyBegin()
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeState))

	found, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, found.Status)
	s.Nil(found.FirstApproval, "rolled-back approval must not surface")
}

func (s *PostgresRequestSuite) TestApprovalRoundTrip() {
	req := s.newRequest(id.NewCaseID())
	req.Policy.RequiresDualApproval = true
	req.Policy.DisposalMethod = retention.MethodCryptographicErasure
	s.Require().NoError(s.store.Create(s.ctx, req))

	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.store.Execute(s.ctx, req.ID, func(r *models.DisposalRequest) error {
		return r.ApplyApproval("sgt.okafor", now)
	})
	s.Require().NoError(err)

	found, err := s.store.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, found.Status)
	s.False(found.FullyApproved())
	s.Require().NotNil(found.FirstApproval)
	s.Equal("sgt.okafor", found.FirstApproval.Actor)
	s.WithinDuration(now, found.FirstApproval.At, time.Millisecond)
	s.Nil(found.SecondApproval)
	s.True(found.Policy.RequiresDualApproval, "policy snapshot survives the round trip")
}

func (s *PostgresRequestSuite) TestExecuteByCaseTouchesOnlyChangedRows() {
	held := s.newRequest(id.NewCaseID())
	s.Require().NoError(s.store.Create(s.ctx, held))
	other := s.newRequest(id.NewCaseID())
	s.Require().NoError(s.store.Create(s.ctx, other))

	changed, err := s.store.ExecuteByCase(s.ctx, held.CaseID, func(r *models.DisposalRequest) (bool, error) {
		return r.ApplyHold("litigation"), nil
	})
	s.Require().NoError(err)
	s.Require().Len(changed, 1)
	s.Equal(models.StatusOnHold, changed[0].Status)

	untouched, err := s.store.FindByID(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingApproval, untouched.Status)
}

func (s *PostgresRequestSuite) TestUnknownRequest() {
	_, err := s.store.FindByID(s.ctx, id.NewDisposalID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Execute(s.ctx, id.NewDisposalID(), func(*models.DisposalRequest) error { return nil })
	s.ErrorIs(err, sentinel.ErrNotFound)
}
