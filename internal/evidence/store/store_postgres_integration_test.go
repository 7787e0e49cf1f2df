//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/evidence/models"
	"custos/internal/evidence/store"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	ctx      context.Context
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresLedgerSuite) newItem() *models.EvidenceItem {
	return &models.EvidenceItem{
		ID:               id.NewEvidenceID(),
		CaseID:           id.NewCaseID(),
		Description:      "seized laptop",
		CurrentCustodian: "det.reyes",
		CurrentLocation:  "evidence room A",
		CreatedAt:        time.Now().UTC(),
	}
}

func (s *PostgresLedgerSuite) entry(to string, ts time.Time) *models.CustodyEntry {
	return &models.CustodyEntry{
		Action:      models.ActionTransfer,
		ToCustodian: to,
		Location:    "lab 3",
		Timestamp:   ts,
		Purpose:     "forensic imaging",
		RecordedBy:  "det.reyes",
		RecordedAt:  ts,
	}
}

func passthrough(entry *models.CustodyEntry) store.BuildEntry {
	return func(_ *models.EvidenceItem, _ *models.CustodyEntry) (*models.CustodyEntry, error) {
		return entry, nil
	}
}

// TestConcurrentAppendsStayGapless drives real row-lock contention: many
// writers appending to one item must come out with a complete 1..n sequence
// and a custodian pointer matching the last entry.
func (s *PostgresLedgerSuite) TestConcurrentAppendsStayGapless() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	const writers = 30
	base := time.Now().UTC()
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := s.entry(fmt.Sprintf("officer-%d", n), base)
			_, err := s.store.AppendEntry(s.ctx, item.ID, passthrough(e))
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	history, err := s.store.History(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().Len(history, writers)

	seen := make(map[uint64]bool)
	for _, e := range history {
		s.False(seen[e.Seq], "duplicate sequence %d", e.Seq)
		seen[e.Seq] = true
	}
	for seq := uint64(1); seq <= writers; seq++ {
		s.True(seen[seq], "missing sequence %d", seq)
	}

	final, err := s.store.FindItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(history[len(history)-1].ToCustodian, final.CurrentCustodian)
}

// TestBuildRejectionPersistsNothing: a build callback that refuses the entry
// must leave both the ledger and the item row untouched.
func (s *PostgresLedgerSuite) TestBuildRejectionPersistsNothing() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	_, err := s.store.AppendEntry(s.ctx, item.ID, func(_ *models.EvidenceItem, _ *models.CustodyEntry) (*models.CustodyEntry, error) {
		return nil, dErrors.New(dErrors.CodeOrderingViolation, "backdated entry")
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOrderingViolation))

	history, err := s.store.History(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Empty(history)

	found, err := s.store.FindItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal("det.reyes", found.CurrentCustodian)
}

func (s *PostgresLedgerSuite) TestCorrectionLeavesCustodyPointer() {
	item := s.newItem()
	s.Require().NoError(s.store.CreateItem(s.ctx, item))

	base := time.Now().UTC()
	first, err := s.store.AppendEntry(s.ctx, item.ID, passthrough(s.entry("analyst.kim", base)))
	s.Require().NoError(err)

	correction := s.entry("analyst.kim", base.Add(time.Minute))
	correction.Action = models.ActionCorrection
	correction.Supersedes = &first.ID
	correction.Notes = "location recorded wrong"
	_, err = s.store.AppendEntry(s.ctx, item.ID, passthrough(correction))
	s.Require().NoError(err)

	found, err := s.store.FindItem(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Equal("analyst.kim", found.CurrentCustodian)
	s.Equal("lab 3", found.CurrentLocation)

	history, err := s.store.History(s.ctx, item.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Require().NotNil(history[1].Supersedes)
	s.Equal(first.ID, *history[1].Supersedes)
}

func (s *PostgresLedgerSuite) TestMarkDisposedIsIdempotent() {
	caseID := id.NewCaseID()
	for i := 0; i < 2; i++ {
		item := s.newItem()
		item.CaseID = caseID
		s.Require().NoError(s.store.CreateItem(s.ctx, item))
	}

	at := time.Now().UTC()
	s.Require().NoError(s.store.MarkDisposed(s.ctx, caseID, at))
	s.Require().NoError(s.store.MarkDisposed(s.ctx, caseID, at.Add(time.Hour)))

	items, err := s.store.ListItemsByCase(s.ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	for _, it := range items {
		s.True(it.Disposed)
		s.Require().NotNil(it.DisposedAt)
		s.WithinDuration(at, *it.DisposedAt, time.Second, "second call must not move the disposal time")
	}
}

func (s *PostgresLedgerSuite) TestUnknownItem() {
	_, err := s.store.FindItem(s.ctx, id.NewEvidenceID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.History(s.ctx, id.NewEvidenceID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.AppendEntry(s.ctx, id.NewEvidenceID(), passthrough(s.entry("x", time.Now())))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
