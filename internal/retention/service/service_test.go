package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/audit"
	"custos/internal/retention/models"
	"custos/internal/retention/store"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

type RetentionServiceSuite struct {
	suite.Suite
	svc      *Service
	auditLog *audit.InMemoryStore
	ctx      context.Context
	clock    time.Time
}

func (s *RetentionServiceSuite) SetupTest() {
	s.auditLog = audit.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(store.NewInMemory(), audit.NewPublisher(s.auditLog, nil, logger), logger)
	s.clock = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActor(context.Background(), "admin.osei")
	s.ctx = requestcontext.WithTime(s.ctx, s.clock)
}

// tick advances the request clock so created-at ordering is deterministic.
func (s *RetentionServiceSuite) tick() {
	s.clock = s.clock.Add(time.Minute)
	s.ctx = requestcontext.WithTime(s.ctx, s.clock)
}

func TestRetentionServiceSuite(t *testing.T) {
	suite.Run(t, new(RetentionServiceSuite))
}

func (s *RetentionServiceSuite) create(years int) *models.RetentionPolicy {
	s.tick()
	policy, err := s.svc.Create(s.ctx, CreateRequest{
		CaseType:       id.CaseTypeFraud,
		RetentionYears: years,
		DisposalMethod: models.MethodSecureDelete,
	})
	s.Require().NoError(err)
	return policy
}

func (s *RetentionServiceSuite) TestActivationSwap() {
	first := s.create(7)
	second := s.create(10)

	s.Run("only the newest policy is active", func() {
		active, err := s.svc.Get(s.ctx, id.CaseTypeFraud)
		s.Require().NoError(err)
		s.Equal(second.ID, active.ID)
		s.Equal(10, active.RetentionYears)
	})

	s.Run("the predecessor survives as history", func() {
		all, err := s.svc.List(s.ctx, true)
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal(first.ID, all[0].ID)
		s.False(all[0].Active)

		activeOnly, err := s.svc.List(s.ctx, false)
		s.Require().NoError(err)
		s.Require().Len(activeOnly, 1)
		s.Equal(second.ID, activeOnly[0].ID)
	})

	s.Run("the swap is audited", func() {
		var actions []audit.Action
		for _, e := range s.auditLog.All() {
			actions = append(actions, e.Action)
		}
		s.Contains(actions, audit.ActionPolicyDeactivated)
		s.Contains(actions, audit.ActionPolicyActivated)
	})
}

func (s *RetentionServiceSuite) TestDeactivate() {
	policy := s.create(7)

	deactivated, err := s.svc.Deactivate(s.ctx, policy.ID)
	s.Require().NoError(err)
	s.False(deactivated.Active)
	s.NotNil(deactivated.DeactivatedAt)

	s.Run("a case type without an active policy reports not found", func() {
		_, err := s.svc.Get(s.ctx, id.CaseTypeFraud)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("double deactivation is a conflict", func() {
		_, err := s.svc.Deactivate(s.ctx, policy.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *RetentionServiceSuite) TestValidation() {
	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"zero retention years", CreateRequest{CaseType: id.CaseTypeFraud, RetentionYears: 0, DisposalMethod: models.MethodSecureDelete}},
		{"negative retention years", CreateRequest{CaseType: id.CaseTypeFraud, RetentionYears: -3, DisposalMethod: models.MethodSecureDelete}},
		{"unknown case type", CreateRequest{CaseType: "JAYWALKING", RetentionYears: 5, DisposalMethod: models.MethodSecureDelete}},
		{"unknown disposal method", CreateRequest{CaseType: id.CaseTypeFraud, RetentionYears: 5, DisposalMethod: "SHRED"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Create(s.ctx, tc.req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
