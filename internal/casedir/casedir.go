// Package casedir is the port to the case directory, the upstream system of
// record for investigations. The engine only reads from it: case types drive
// retention policy selection and closed dates drive disposal eligibility.
package casedir

//go:generate mockgen -source=casedir.go -destination=mocks/mocks.go -package=mocks Directory

import (
	"context"
	"time"

	id "custos/pkg/domain"
)

// CaseStatus mirrors the directory's lifecycle states. Only CLOSED cases
// enter the retention clock.
type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "OPEN"
	CaseStatusClosed   CaseStatus = "CLOSED"
	CaseStatusArchived CaseStatus = "ARCHIVED"
)

// CaseInfo is the read-only projection of a case the engine consumes.
type CaseInfo struct {
	ID       id.CaseID
	CaseType id.CaseType
	Status   CaseStatus
	ClosedAt *time.Time
}

// Closed reports whether the retention clock has started for this case.
func (c CaseInfo) Closed() bool {
	return (c.Status == CaseStatusClosed || c.Status == CaseStatusArchived) && c.ClosedAt != nil
}

// Directory reads case facts from the external case-management system.
type Directory interface {
	FindCase(ctx context.Context, caseID id.CaseID) (CaseInfo, error)
	// ListClosedCases returns every case whose retention clock is running.
	ListClosedCases(ctx context.Context) ([]CaseInfo, error)
}
