package audit

import "time"

// Category classifies audit events by their primary purpose. Compliance
// events gate the business operation that emits them (fail-closed); the rest
// are observational.
type Category string

const (
	// CategoryCompliance covers events with legal/evidentiary significance:
	// custody appends, corrections, disposal approvals and completions.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers events relevant to monitoring and forensics:
	// failed transitions, hash mismatches, rejected approvals.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine visibility: scans run, reads.
	CategoryOperations Category = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  Category
	Timestamp time.Time
	Action    Action
	// CaseID / EvidenceID / DisposalID are string forms; whichever apply are
	// populated.
	CaseID     string
	EvidenceID string
	DisposalID string
	Actor      string
	Decision   string
	Reason     string
	RequestID  string
}

// Action names the audited operation.
type Action string

const (
	ActionEvidenceIntake     Action = "evidence_intake"
	ActionCustodyAppended    Action = "custody_entry_appended"
	ActionCustodyCorrected   Action = "custody_entry_corrected"
	ActionHashVerified       Action = "hash_verified"
	ActionHoldPlaced         Action = "legal_hold_placed"
	ActionHoldReleased       Action = "legal_hold_released"
	ActionPolicyActivated    Action = "retention_policy_activated"
	ActionPolicyDeactivated  Action = "retention_policy_deactivated"
	ActionRequestCreated     Action = "disposal_request_created"
	ActionRequestApproved    Action = "disposal_request_approved"
	ActionRequestBegun       Action = "disposal_request_begun"
	ActionRequestCompleted   Action = "disposal_request_completed"
	ActionRequestOnHold      Action = "disposal_request_on_hold"
	ActionRequestRecovered   Action = "disposal_request_recovered"
	ActionTransitionRejected Action = "disposal_transition_rejected"
	ActionScanRun            Action = "eligibility_scan_run"
)
