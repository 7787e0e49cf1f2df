// Package domain holds identifier and value types shared across services.
// IDs are distinct types over uuid.UUID so an evidence ID can never be passed
// where a case ID is expected.
package domain

import "github.com/google/uuid"

type (
	// EvidenceID identifies one evidence item.
	EvidenceID uuid.UUID
	// CaseID identifies an investigation case in the external directory.
	CaseID uuid.UUID
	// EntryID identifies one custody ledger entry.
	EntryID uuid.UUID
	// PolicyID identifies a retention policy row.
	PolicyID uuid.UUID
	// HoldID identifies a legal hold.
	HoldID uuid.UUID
	// DisposalID identifies a disposal request.
	DisposalID uuid.UUID
)

func NewEvidenceID() EvidenceID { return EvidenceID(uuid.New()) }
func NewCaseID() CaseID         { return CaseID(uuid.New()) }
func NewEntryID() EntryID       { return EntryID(uuid.New()) }
func NewPolicyID() PolicyID     { return PolicyID(uuid.New()) }
func NewHoldID() HoldID         { return HoldID(uuid.New()) }
func NewDisposalID() DisposalID { return DisposalID(uuid.New()) }

func (id EvidenceID) String() string { return uuid.UUID(id).String() }
func (id CaseID) String() string     { return uuid.UUID(id).String() }
func (id EntryID) String() string    { return uuid.UUID(id).String() }
func (id PolicyID) String() string   { return uuid.UUID(id).String() }
func (id HoldID) String() string     { return uuid.UUID(id).String() }
func (id DisposalID) String() string { return uuid.UUID(id).String() }

func (id EvidenceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id HoldID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DisposalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseEvidenceID validates and returns an EvidenceID from its string form.
func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := uuid.Parse(s)
	return EvidenceID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := uuid.Parse(s)
	return CaseID(u), err
}

func ParseEntryID(s string) (EntryID, error) {
	u, err := uuid.Parse(s)
	return EntryID(u), err
}

func ParsePolicyID(s string) (PolicyID, error) {
	u, err := uuid.Parse(s)
	return PolicyID(u), err
}

func ParseHoldID(s string) (HoldID, error) {
	u, err := uuid.Parse(s)
	return HoldID(u), err
}

func ParseDisposalID(s string) (DisposalID, error) {
	u, err := uuid.Parse(s)
	return DisposalID(u), err
}
