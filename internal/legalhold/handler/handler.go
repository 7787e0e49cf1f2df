package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/legalhold/models"
	"custos/internal/legalhold/service"
	"custos/internal/transport/http/shared"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Service defines the legal hold operations the handler delegates to.
type Service interface {
	Place(ctx context.Context, req service.PlaceRequest) (*models.LegalHold, error)
	Release(ctx context.Context, holdID id.HoldID) (*models.LegalHold, error)
	Get(ctx context.Context, holdID id.HoldID) (*models.LegalHold, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.LegalHold, error)
}

type Handler struct {
	holds  Service
	logger *slog.Logger
}

func New(holds Service, logger *slog.Logger) *Handler {
	return &Handler{holds: holds, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/legal-holds", h.handlePlace)
	r.Get("/legal-holds", h.handleList)
	r.Get("/legal-holds/{holdID}", h.handleGet)
	r.Delete("/legal-holds/{holdID}", h.handleRelease)
}

type placeHoldRequest struct {
	CaseID    string     `json:"case_id"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type holdResponse struct {
	ID         string     `json:"id"`
	CaseID     string     `json:"case_id"`
	Reason     string     `json:"reason"`
	PlacedBy   string     `json:"placed_by"`
	PlacedAt   time.Time  `json:"placed_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Active     bool       `json:"active"`
	ReleasedBy string     `json:"released_by,omitempty"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

func toHoldResponse(h *models.LegalHold) holdResponse {
	return holdResponse{
		ID:         h.ID.String(),
		CaseID:     h.CaseID.String(),
		Reason:     h.Reason,
		PlacedBy:   h.PlacedBy,
		PlacedAt:   h.PlacedAt,
		ExpiresAt:  h.ExpiresAt,
		Active:     h.Active,
		ReleasedBy: h.ReleasedBy,
		ReleasedAt: h.ReleasedAt,
	}
}

func (h *Handler) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caseID, err := id.ParseCaseID(req.CaseID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid case id"))
		return
	}

	hold, err := h.holds.Place(r.Context(), service.PlaceRequest{
		CaseID:    caseID,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "hold placement failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toHoldResponse(hold))
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	holdID, err := id.ParseHoldID(chi.URLParam(r, "holdID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid hold id"))
		return
	}
	hold, err := h.holds.Release(r.Context(), holdID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHoldResponse(hold))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	holdID, err := id.ParseHoldID(chi.URLParam(r, "holdID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid hold id"))
		return
	}
	hold, err := h.holds.Get(r.Context(), holdID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHoldResponse(hold))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(r.URL.Query().Get("case_id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "case_id query parameter is required"))
		return
	}
	holds, err := h.holds.ListByCase(r.Context(), caseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]holdResponse, 0, len(holds))
	for _, hold := range holds {
		out = append(out, toHoldResponse(hold))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
