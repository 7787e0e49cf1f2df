// Package models defines the evidence item and its chain of custody.
//
// The ledger is the source of truth: an item's current custodian and location
// are a denormalized view of the highest-sequence custody-moving entry, kept
// in lockstep by the store so reads never observe the two out of sync.
package models

import (
	"fmt"
	"time"

	"custos/pkg/digest"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Action classifies a custody entry.
type Action string

const (
	ActionCollection Action = "COLLECTION"
	ActionTransfer   Action = "TRANSFER"
	ActionAnalysis   Action = "ANALYSIS"
	ActionStorage    Action = "STORAGE"
	// ActionCorrection annotates an earlier entry. It never re-establishes
	// custody: the current-custodian pointer only follows the other actions.
	ActionCorrection Action = "CORRECTION"
)

var actions = map[Action]struct{}{
	ActionCollection: {},
	ActionTransfer:   {},
	ActionAnalysis:   {},
	ActionStorage:    {},
	ActionCorrection: {},
}

// ParseAction validates and returns an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", fmt.Errorf("unknown custody action: %s", s)
	}
	return a, nil
}

// MovesCustody reports whether this action updates the item's current
// custodian and location.
func (a Action) MovesCustody() bool { return a != ActionCorrection }

// EvidenceItem is one piece of evidence under management. Items are created
// at intake and never deleted; disposal only flips the Disposed flag.
type EvidenceItem struct {
	ID               id.EvidenceID
	CaseID           id.CaseID
	Description      string
	CurrentCustodian string
	CurrentLocation  string
	// Digest is nil until content has been hashed at intake.
	Digest     *digest.Digest
	DigestAlg  string
	Disposed   bool
	DisposedAt *time.Time
	CreatedAt  time.Time
}

// CustodyEntry is one immutable record of evidence changing hands. Entries
// are append-only: the only way to fix an error is a CORRECTION entry
// referencing the original via Supersedes.
type CustodyEntry struct {
	ID         id.EntryID
	EvidenceID id.EvidenceID
	// Seq is assigned by the store, strictly increasing per item with no gaps.
	Seq           uint64
	Action        Action
	FromCustodian string
	ToCustodian   string
	Location      string
	// Timestamp is the event time reported by the officer, monotonic per item.
	Timestamp time.Time
	Purpose   string
	Notes     string
	// Supersedes references the corrected entry; set only on CORRECTION.
	Supersedes *id.EntryID
	RecordedBy string
	RecordedAt time.Time
}

// Validate checks entry fields that do not depend on ledger state.
func (e *CustodyEntry) Validate() error {
	if e.EvidenceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "evidence id is required")
	}
	if _, ok := actions[e.Action]; !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unknown custody action: %s", e.Action)
	}
	if e.ToCustodian == "" {
		return dErrors.New(dErrors.CodeValidation, "to-custodian is required")
	}
	if e.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "timestamp is required")
	}
	if e.Purpose == "" {
		return dErrors.New(dErrors.CodeValidation, "purpose is required")
	}
	if e.Action == ActionCorrection && e.Supersedes == nil {
		return dErrors.New(dErrors.CodeValidation, "correction must reference the superseded entry")
	}
	if e.Action != ActionCorrection && e.Supersedes != nil {
		return dErrors.Newf(dErrors.CodeValidation, "%s entry must not reference a superseded entry", e.Action)
	}
	return nil
}
