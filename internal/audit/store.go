package audit

import "context"

// Store persists audit events. The interface is append-only: no update or
// delete methods exist, on any implementation, because the audit trail shares
// the ledger's admissibility requirements.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID string) ([]Event, error)
}
