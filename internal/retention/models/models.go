// Package models defines retention policies: the rules governing when and how
// a case type's evidence may be destroyed.
package models

import (
	"fmt"
	"time"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// DisposalMethod names how evidence is destroyed once disposal completes.
type DisposalMethod string

const (
	MethodCryptographicErasure DisposalMethod = "CRYPTOGRAPHIC_ERASURE"
	MethodPhysicalDestruction  DisposalMethod = "PHYSICAL_DESTRUCTION"
	MethodSecureDelete         DisposalMethod = "SECURE_DELETE"
)

var methods = map[DisposalMethod]struct{}{
	MethodCryptographicErasure: {},
	MethodPhysicalDestruction:  {},
	MethodSecureDelete:         {},
}

// ParseDisposalMethod validates and returns a DisposalMethod.
func ParseDisposalMethod(s string) (DisposalMethod, error) {
	m := DisposalMethod(s)
	if _, ok := methods[m]; !ok {
		return "", fmt.Errorf("unknown disposal method: %s", s)
	}
	return m, nil
}

// RequiresWitness reports whether completion needs a recorded witness.
func (m DisposalMethod) RequiresWitness() bool { return m == MethodPhysicalDestruction }

// RetentionPolicy maps a case type to its retention rules. At most one policy
// per case type is active at a time; deactivated policies are kept because
// existing disposal requests reference the rules they were created under.
type RetentionPolicy struct {
	ID                   id.PolicyID
	CaseType             id.CaseType
	RetentionYears       int
	DisposalMethod       DisposalMethod
	RequiresDualApproval bool
	Active               bool
	CreatedAt            time.Time
	DeactivatedAt        *time.Time
}

// Validate checks policy fields at creation time.
func (p *RetentionPolicy) Validate() error {
	if _, err := id.ParseCaseType(string(p.CaseType)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid case type")
	}
	if p.RetentionYears <= 0 {
		return dErrors.New(dErrors.CodeValidation, "retention years must be positive")
	}
	if _, ok := methods[p.DisposalMethod]; !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unknown disposal method: %s", p.DisposalMethod)
	}
	return nil
}

// CanDeactivate reports whether the policy is currently active.
func (p *RetentionPolicy) CanDeactivate() error {
	if !p.Active {
		return dErrors.New(dErrors.CodeConflict, "policy is already inactive")
	}
	return nil
}

// ApplyDeactivation marks the policy inactive at the given time.
func (p *RetentionPolicy) ApplyDeactivation(now time.Time) {
	p.Active = false
	t := now
	p.DeactivatedAt = &t
}
