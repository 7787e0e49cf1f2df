package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/retention/models"
	"custos/internal/retention/service"
	"custos/internal/transport/http/shared"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Service defines the retention policy operations the handler delegates to.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.RetentionPolicy, error)
	Deactivate(ctx context.Context, policyID id.PolicyID) (*models.RetentionPolicy, error)
	List(ctx context.Context, includeInactive bool) ([]*models.RetentionPolicy, error)
}

type Handler struct {
	retention Service
	logger    *slog.Logger
}

func New(retention Service, logger *slog.Logger) *Handler {
	return &Handler{retention: retention, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/retention/policies", h.handleList)
	r.Post("/retention/policies", h.handleCreate)
	r.Patch("/retention/policies/{policyID}", h.handlePatch)
}

type createPolicyRequest struct {
	CaseType             string `json:"case_type"`
	RetentionYears       int    `json:"retention_years"`
	DisposalMethod       string `json:"disposal_method"`
	RequiresDualApproval bool   `json:"requires_dual_approval"`
}

type patchPolicyRequest struct {
	// Active=false is the only supported patch: policies are immutable once
	// issued, new rules mean a new policy.
	Active *bool `json:"active"`
}

type policyResponse struct {
	ID                   string     `json:"id"`
	CaseType             string     `json:"case_type"`
	RetentionYears       int        `json:"retention_years"`
	DisposalMethod       string     `json:"disposal_method"`
	RequiresDualApproval bool       `json:"requires_dual_approval"`
	Active               bool       `json:"active"`
	CreatedAt            time.Time  `json:"created_at"`
	DeactivatedAt        *time.Time `json:"deactivated_at,omitempty"`
}

func toPolicyResponse(p *models.RetentionPolicy) policyResponse {
	return policyResponse{
		ID:                   p.ID.String(),
		CaseType:             string(p.CaseType),
		RetentionYears:       p.RetentionYears,
		DisposalMethod:       string(p.DisposalMethod),
		RequiresDualApproval: p.RequiresDualApproval,
		Active:               p.Active,
		CreatedAt:            p.CreatedAt,
		DeactivatedAt:        p.DeactivatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	policies, err := h.retention.List(r.Context(), includeInactive)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caseType, err := id.ParseCaseType(req.CaseType)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid case type"))
		return
	}
	method, err := models.ParseDisposalMethod(req.DisposalMethod)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid disposal method"))
		return
	}

	policy, err := h.retention.Create(r.Context(), service.CreateRequest{
		CaseType:             caseType,
		RetentionYears:       req.RetentionYears,
		DisposalMethod:       method,
		RequiresDualApproval: req.RequiresDualApproval,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "policy create failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toPolicyResponse(policy))
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid policy id"))
		return
	}
	var req patchPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Active == nil || *req.Active {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation,
			"policies are immutable; only deactivation (active=false) is supported"))
		return
	}

	policy, err := h.retention.Deactivate(r.Context(), policyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}
