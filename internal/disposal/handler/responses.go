package handler

import (
	"time"

	"custos/internal/disposal/models"
)

type approvalResponse struct {
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

type requestResponse struct {
	ID              string             `json:"id"`
	CaseID          string             `json:"case_id"`
	PolicyID        string             `json:"policy_id"`
	CaseType        string             `json:"case_type"`
	RetentionYears  int                `json:"retention_years"`
	DisposalMethod  string             `json:"disposal_method"`
	RequiresDualApp bool               `json:"requires_dual_approval"`
	EligibleAt      time.Time          `json:"eligible_at"`
	RequestedBy     string             `json:"requested_by"`
	RequestedAt     time.Time          `json:"requested_at"`
	Status          string             `json:"status"`
	FirstApproval   *approvalResponse  `json:"first_approval,omitempty"`
	SecondApproval  *approvalResponse  `json:"second_approval,omitempty"`
	Witness         string             `json:"witness,omitempty"`
	CompletedBy     string             `json:"completed_by,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	HoldNote        string             `json:"hold_note,omitempty"`
}

func toRequestResponse(r *models.DisposalRequest) requestResponse {
	resp := requestResponse{
		ID:              r.ID.String(),
		CaseID:          r.CaseID.String(),
		PolicyID:        r.Policy.PolicyID.String(),
		CaseType:        string(r.Policy.CaseType),
		RetentionYears:  r.Policy.RetentionYears,
		DisposalMethod:  string(r.Policy.DisposalMethod),
		RequiresDualApp: r.Policy.RequiresDualApproval,
		EligibleAt:      r.EligibleAt,
		RequestedBy:     r.RequestedBy,
		RequestedAt:     r.RequestedAt,
		Status:          string(r.Status),
		Witness:         r.Witness,
		CompletedBy:     r.CompletedBy,
		CompletedAt:     r.CompletedAt,
		Notes:           r.Notes,
		HoldNote:        r.HoldNote,
	}
	if r.FirstApproval != nil {
		resp.FirstApproval = &approvalResponse{Actor: r.FirstApproval.Actor, At: r.FirstApproval.At}
	}
	if r.SecondApproval != nil {
		resp.SecondApproval = &approvalResponse{Actor: r.SecondApproval.Actor, At: r.SecondApproval.At}
	}
	return resp
}

func toRequestResponses(reqs []*models.DisposalRequest) []requestResponse {
	out := make([]requestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return out
}
