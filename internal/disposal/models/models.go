// Package models defines the disposal workflow: requests created by the
// eligibility scan and walked through approval to completion.
package models

import (
	"fmt"
	"time"

	retention "custos/internal/retention/models"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Status is a disposal request's position in the workflow.
//
//	PENDING_APPROVAL -> APPROVED -> IN_PROGRESS -> COMPLETED
//
// Any non-terminal status can be pushed to ON_HOLD by a legal hold; recovery
// returns the request to PENDING_APPROVAL with its approvals cleared.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusOnHold          Status = "ON_HOLD"
	StatusApproved        Status = "APPROVED"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusCompleted       Status = "COMPLETED"
)

var statuses = map[Status]struct{}{
	StatusPendingApproval: {},
	StatusOnHold:          {},
	StatusApproved:        {},
	StatusInProgress:      {},
	StatusCompleted:       {},
}

// ParseStatus validates and returns a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statuses[st]; !ok {
		return "", fmt.Errorf("unknown disposal status: %s", s)
	}
	return st, nil
}

// Terminal reports whether the request can never transition again.
func (s Status) Terminal() bool { return s == StatusCompleted }

// PolicySnapshot freezes the retention rules a request was created under.
// Later policy changes never alter requests already issued.
type PolicySnapshot struct {
	PolicyID             id.PolicyID
	CaseType             id.CaseType
	RetentionYears       int
	DisposalMethod       retention.DisposalMethod
	RequiresDualApproval bool
}

// Snapshot copies the relevant fields of an active policy.
func Snapshot(p *retention.RetentionPolicy) PolicySnapshot {
	return PolicySnapshot{
		PolicyID:             p.ID,
		CaseType:             p.CaseType,
		RetentionYears:       p.RetentionYears,
		DisposalMethod:       p.DisposalMethod,
		RequiresDualApproval: p.RequiresDualApproval,
	}
}

// Approval records one signature on a request.
type Approval struct {
	Actor string
	At    time.Time
}

// DisposalRequest tracks one case's journey toward evidence destruction.
type DisposalRequest struct {
	ID          id.DisposalID
	CaseID      id.CaseID
	Policy      PolicySnapshot
	EligibleAt  time.Time
	RequestedBy string
	RequestedAt time.Time
	Status      Status

	// FirstApproval and SecondApproval encode the signature state: none, one,
	// or two. SecondApproval is only ever set when the policy snapshot
	// requires dual approval.
	FirstApproval  *Approval
	SecondApproval *Approval

	Witness     string
	CompletedBy string
	CompletedAt *time.Time
	Notes       string

	// HoldNote names the hold that most recently pushed the request to
	// ON_HOLD, for operator context.
	HoldNote string
}

// FullyApproved reports whether the snapshot's signature requirement is met.
func (r *DisposalRequest) FullyApproved() bool {
	if r.FirstApproval == nil {
		return false
	}
	if r.Policy.RequiresDualApproval {
		return r.SecondApproval != nil
	}
	return true
}

// ApplyApproval records a signature. The first moves the request to APPROVED;
// under dual approval that status still awaits a countersignature from a
// different actor before the request can begin.
func (r *DisposalRequest) ApplyApproval(actor string, now time.Time) error {
	switch r.Status {
	case StatusPendingApproval:
		r.FirstApproval = &Approval{Actor: actor, At: now}
		r.Status = StatusApproved
		return nil
	case StatusApproved:
		switch {
		case !r.Policy.RequiresDualApproval:
			return dErrors.New(dErrors.CodeState, "request is already approved")
		case r.SecondApproval != nil:
			return dErrors.New(dErrors.CodeState, "request already has both approvals")
		case r.FirstApproval.Actor == actor:
			return dErrors.New(dErrors.CodeState, "second approval must come from a different approver")
		default:
			r.SecondApproval = &Approval{Actor: actor, At: now}
			return nil
		}
	default:
		return transitionErr(r.Status, StatusApproved)
	}
}

// ApplyBegin moves a fully approved request into IN_PROGRESS.
func (r *DisposalRequest) ApplyBegin() error {
	if r.Status != StatusApproved {
		return transitionErr(r.Status, StatusInProgress)
	}
	if !r.FullyApproved() {
		return dErrors.New(dErrors.CodeState, "begin requires a second approver's signature")
	}
	r.Status = StatusInProgress
	return nil
}

// ApplyCompletion finishes the request. Physical destruction requires a
// recorded witness; one named at approval time counts.
func (r *DisposalRequest) ApplyCompletion(actor, witness string, now time.Time) error {
	if r.Status != StatusInProgress {
		return transitionErr(r.Status, StatusCompleted)
	}
	if witness == "" {
		witness = r.Witness
	}
	if r.Policy.DisposalMethod.RequiresWitness() && witness == "" {
		return dErrors.New(dErrors.CodeMissingWitness,
			"physical destruction requires a witness")
	}
	r.Status = StatusCompleted
	r.Witness = witness
	r.CompletedBy = actor
	t := now
	r.CompletedAt = &t
	return nil
}

// ApplyHold pushes a non-terminal request to ON_HOLD. Returns false when the
// request is already on hold or completed.
func (r *DisposalRequest) ApplyHold(note string) bool {
	if r.Status == StatusOnHold || r.Status.Terminal() {
		return false
	}
	r.Status = StatusOnHold
	r.HoldNote = note
	return true
}

// ApplyRecovery returns an ON_HOLD request to PENDING_APPROVAL. Approvals
// gathered before the hold are cleared: the hold may have changed the facts
// the approvers signed off on.
func (r *DisposalRequest) ApplyRecovery() error {
	if r.Status != StatusOnHold {
		return transitionErr(r.Status, StatusPendingApproval)
	}
	r.Status = StatusPendingApproval
	r.FirstApproval = nil
	r.SecondApproval = nil
	r.HoldNote = ""
	return nil
}

func transitionErr(from, to Status) error {
	return dErrors.Newf(dErrors.CodeState, "cannot transition from %s to %s", from, to)
}
