package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	retention "custos/internal/retention/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

func newRequest(dual bool, method retention.DisposalMethod) *DisposalRequest {
	return &DisposalRequest{
		ID:     id.NewDisposalID(),
		CaseID: id.NewCaseID(),
		Policy: PolicySnapshot{
			PolicyID:             id.NewPolicyID(),
			CaseType:             id.CaseTypeFraud,
			RetentionYears:       7,
			DisposalMethod:       method,
			RequiresDualApproval: dual,
		},
		Status: StatusPendingApproval,
	}
}

func TestSingleApproval(t *testing.T) {
	r := newRequest(false, retention.MethodSecureDelete)
	now := time.Now()

	require.NoError(t, r.ApplyApproval("sgt.okafor", now))
	assert.Equal(t, StatusApproved, r.Status)
	require.NotNil(t, r.FirstApproval)
	assert.Equal(t, "sgt.okafor", r.FirstApproval.Actor)

	err := r.ApplyApproval("lt.moreau", now)
	require.Error(t, err, "an approved request takes no further signatures")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
}

func TestDualApproval(t *testing.T) {
	now := time.Now()

	t.Run("two distinct approvers", func(t *testing.T) {
		r := newRequest(true, retention.MethodCryptographicErasure)

		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		assert.Equal(t, StatusApproved, r.Status, "first signature moves to approved, pending countersignature")
		assert.False(t, r.FullyApproved())

		err := r.ApplyBegin()
		require.Error(t, err, "one of two signatures cannot begin destruction")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))

		require.NoError(t, r.ApplyApproval("lt.moreau", now))
		assert.True(t, r.FullyApproved())
		require.NoError(t, r.ApplyBegin())
	})

	t.Run("same approver twice is rejected", func(t *testing.T) {
		r := newRequest(true, retention.MethodCryptographicErasure)

		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		err := r.ApplyApproval("sgt.okafor", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
		assert.Nil(t, r.SecondApproval)
		assert.False(t, r.FullyApproved())
	})
}

func TestBeginAndComplete(t *testing.T) {
	now := time.Now()

	t.Run("happy path", func(t *testing.T) {
		r := newRequest(false, retention.MethodSecureDelete)
		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		require.NoError(t, r.ApplyBegin())
		assert.Equal(t, StatusInProgress, r.Status)

		require.NoError(t, r.ApplyCompletion("tech.ng", "", now))
		assert.Equal(t, StatusCompleted, r.Status)
		assert.Equal(t, "tech.ng", r.CompletedBy)
		require.NotNil(t, r.CompletedAt)
	})

	t.Run("begin requires approval", func(t *testing.T) {
		r := newRequest(false, retention.MethodSecureDelete)
		err := r.ApplyBegin()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})

	t.Run("complete requires in-progress", func(t *testing.T) {
		r := newRequest(false, retention.MethodSecureDelete)
		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		err := r.ApplyCompletion("tech.ng", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})

	t.Run("physical destruction needs a witness", func(t *testing.T) {
		r := newRequest(false, retention.MethodPhysicalDestruction)
		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		require.NoError(t, r.ApplyBegin())

		err := r.ApplyCompletion("tech.ng", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingWitness))
		assert.Equal(t, StatusInProgress, r.Status, "rejected completion leaves the status alone")

		require.NoError(t, r.ApplyCompletion("tech.ng", "insp.vargas", now))
		assert.Equal(t, "insp.vargas", r.Witness)
	})

	t.Run("witness named at approval satisfies completion", func(t *testing.T) {
		r := newRequest(false, retention.MethodPhysicalDestruction)
		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		r.Witness = "insp.vargas"
		require.NoError(t, r.ApplyBegin())

		require.NoError(t, r.ApplyCompletion("tech.ng", "", now))
		assert.Equal(t, StatusCompleted, r.Status)
		assert.Equal(t, "insp.vargas", r.Witness)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		r := newRequest(false, retention.MethodSecureDelete)
		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		require.NoError(t, r.ApplyBegin())
		require.NoError(t, r.ApplyCompletion("tech.ng", "", now))

		assert.False(t, r.ApplyHold("late hold"))
		assert.Error(t, r.ApplyBegin())
		assert.Error(t, r.ApplyRecovery())
	})
}

func TestHoldAndRecovery(t *testing.T) {
	now := time.Now()

	t.Run("hold interrupts any non-terminal status", func(t *testing.T) {
		for _, setup := range []func(*DisposalRequest){
			func(r *DisposalRequest) {},
			func(r *DisposalRequest) { _ = r.ApplyApproval("sgt.okafor", now) },
			func(r *DisposalRequest) { _ = r.ApplyApproval("sgt.okafor", now); _ = r.ApplyBegin() },
		} {
			r := newRequest(false, retention.MethodSecureDelete)
			setup(r)
			require.True(t, r.ApplyHold("litigation"))
			assert.Equal(t, StatusOnHold, r.Status)
			assert.Equal(t, "litigation", r.HoldNote)
		}
	})

	t.Run("holding an already-held request is a no-op", func(t *testing.T) {
		r := newRequest(false, retention.MethodSecureDelete)
		require.True(t, r.ApplyHold("first"))
		assert.False(t, r.ApplyHold("second"))
		assert.Equal(t, "first", r.HoldNote)
	})

	t.Run("recovery returns to pending and clears signatures", func(t *testing.T) {
		r := newRequest(true, retention.MethodCryptographicErasure)
		require.NoError(t, r.ApplyApproval("sgt.okafor", now))
		require.True(t, r.ApplyHold("litigation"))

		require.NoError(t, r.ApplyRecovery())
		assert.Equal(t, StatusPendingApproval, r.Status)
		assert.Nil(t, r.FirstApproval, "pre-hold signatures are void after recovery")
		assert.Nil(t, r.SecondApproval)
		assert.Empty(t, r.HoldNote)
	})

	t.Run("recovery requires on-hold", func(t *testing.T) {
		r := newRequest(false, retention.MethodSecureDelete)
		err := r.ApplyRecovery()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeState))
	})
}

func TestTransitionsOnHoldAreBlocked(t *testing.T) {
	now := time.Now()
	r := newRequest(false, retention.MethodSecureDelete)
	require.True(t, r.ApplyHold("litigation"))

	assert.Error(t, r.ApplyApproval("sgt.okafor", now))
	assert.Error(t, r.ApplyBegin())
	assert.Error(t, r.ApplyCompletion("tech.ng", "", now))
	assert.Equal(t, StatusOnHold, r.Status)
}
