package handler

import (
	"time"

	"custos/internal/evidence/models"
)

type itemResponse struct {
	ID               string     `json:"id"`
	CaseID           string     `json:"case_id"`
	Description      string     `json:"description"`
	CurrentCustodian string     `json:"current_custodian"`
	CurrentLocation  string     `json:"current_location"`
	Digest           string     `json:"digest,omitempty"`
	DigestAlg        string     `json:"digest_alg,omitempty"`
	Disposed         bool       `json:"disposed"`
	DisposedAt       *time.Time `json:"disposed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toItemResponse(item *models.EvidenceItem) itemResponse {
	resp := itemResponse{
		ID:               item.ID.String(),
		CaseID:           item.CaseID.String(),
		Description:      item.Description,
		CurrentCustodian: item.CurrentCustodian,
		CurrentLocation:  item.CurrentLocation,
		DigestAlg:        item.DigestAlg,
		Disposed:         item.Disposed,
		DisposedAt:       item.DisposedAt,
		CreatedAt:        item.CreatedAt,
	}
	if item.Digest != nil {
		resp.Digest = item.Digest.String()
	}
	return resp
}

type entryResponse struct {
	ID            string    `json:"id"`
	EvidenceID    string    `json:"evidence_id"`
	Seq           uint64    `json:"seq"`
	Action        string    `json:"action"`
	FromCustodian string    `json:"from_custodian,omitempty"`
	ToCustodian   string    `json:"to_custodian"`
	Location      string    `json:"location,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Purpose       string    `json:"purpose"`
	Notes         string    `json:"notes,omitempty"`
	Supersedes    string    `json:"supersedes,omitempty"`
	RecordedBy    string    `json:"recorded_by"`
	RecordedAt    time.Time `json:"recorded_at"`
}

func toEntryResponse(entry *models.CustodyEntry) entryResponse {
	resp := entryResponse{
		ID:            entry.ID.String(),
		EvidenceID:    entry.EvidenceID.String(),
		Seq:           entry.Seq,
		Action:        string(entry.Action),
		FromCustodian: entry.FromCustodian,
		ToCustodian:   entry.ToCustodian,
		Location:      entry.Location,
		Timestamp:     entry.Timestamp,
		Purpose:       entry.Purpose,
		Notes:         entry.Notes,
		RecordedBy:    entry.RecordedBy,
		RecordedAt:    entry.RecordedAt,
	}
	if entry.Supersedes != nil {
		resp.Supersedes = entry.Supersedes.String()
	}
	return resp
}

func toEntryResponses(entries []*models.CustodyEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type verificationResponse struct {
	Match    bool   `json:"match"`
	Stored   string `json:"stored_digest"`
	Computed string `json:"computed_digest"`
}
