// Package models defines legal holds: preservation obligations that freeze a
// case's evidence against disposal while active.
package models

import (
	"time"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// LegalHold pins a case. A hold is active until it is released or, when an
// expiry is set, until that instant passes. Expiry makes the hold stop
// blocking disposal; it does not write a release record.
type LegalHold struct {
	ID         id.HoldID
	CaseID     id.CaseID
	Reason     string
	PlacedBy   string
	PlacedAt   time.Time
	ExpiresAt  *time.Time
	Active     bool
	ReleasedBy string
	ReleasedAt *time.Time
}

// Validate checks hold fields at placement time.
func (h *LegalHold) Validate() error {
	if h.CaseID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	if h.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "hold reason is required")
	}
	if h.PlacedBy == "" {
		return dErrors.New(dErrors.CodeValidation, "placing actor is required")
	}
	if h.ExpiresAt != nil && !h.ExpiresAt.After(h.PlacedAt) {
		return dErrors.New(dErrors.CodeValidation, "expiry must be after placement")
	}
	return nil
}

// ActiveAt reports whether the hold blocks disposal at the given instant.
func (h *LegalHold) ActiveAt(now time.Time) bool {
	if !h.Active {
		return false
	}
	if h.ExpiresAt != nil && !now.Before(*h.ExpiresAt) {
		return false
	}
	return true
}

// ApplyRelease marks the hold released by an actor at the given time.
func (h *LegalHold) ApplyRelease(releasedBy string, now time.Time) error {
	if !h.Active {
		return dErrors.New(dErrors.CodeState, "hold is already released")
	}
	h.Active = false
	h.ReleasedBy = releasedBy
	t := now
	h.ReleasedAt = &t
	return nil
}
