package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/disposal/models"
	"custos/internal/disposal/service"
	"custos/internal/transport/http/shared"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Service defines the disposal workflow operations the handler delegates to.
type Service interface {
	Scan(ctx context.Context) (*service.ScanReport, error)
	Approve(ctx context.Context, disposalID id.DisposalID, witness string) (*models.DisposalRequest, error)
	Begin(ctx context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error)
	Complete(ctx context.Context, req service.CompleteRequest) (*models.DisposalRequest, error)
	Get(ctx context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error)
	List(ctx context.Context, status *models.Status) ([]*models.DisposalRequest, error)
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.DisposalRequest, error)
}

// Handler handles disposal workflow endpoints.
type Handler struct {
	disposal Service
	logger   *slog.Logger
}

func New(disposal Service, logger *slog.Logger) *Handler {
	return &Handler{disposal: disposal, logger: logger}
}

// Register mounts the disposal routes on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/disposal-requests", h.handleList)
	r.Post("/disposal-requests/scan", h.handleScan)
	r.Get("/disposal-requests/{disposalID}", h.handleGet)
	r.Post("/disposal-requests/{disposalID}/approve", h.handleApprove)
	r.Post("/disposal-requests/{disposalID}/begin", h.handleBegin)
	r.Post("/disposal-requests/{disposalID}/complete", h.handleComplete)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	report, err := h.disposal.Scan(r.Context())
	if err != nil {
		h.logError(r, "eligibility scan failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if rawCase := r.URL.Query().Get("case_id"); rawCase != "" {
		caseID, err := id.ParseCaseID(rawCase)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
			return
		}
		reqs, err := h.disposal.ListByCase(r.Context(), caseID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, toRequestResponses(reqs))
		return
	}

	var status *models.Status
	if rawStatus := r.URL.Query().Get("status"); rawStatus != "" {
		st, err := models.ParseStatus(rawStatus)
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid status filter"))
			return
		}
		status = &st
	}
	reqs, err := h.disposal.List(r.Context(), status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponses(reqs))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	disposalID, ok := h.disposalID(w, r)
	if !ok {
		return
	}
	req, err := h.disposal.Get(r.Context(), disposalID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

type approveRequest struct {
	// Witness may be named at approval time; completion accepts it in lieu of
	// one supplied then.
	Witness string `json:"witness,omitempty"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	disposalID, ok := h.disposalID(w, r)
	if !ok {
		return
	}
	var body approveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}
	req, err := h.disposal.Approve(r.Context(), disposalID, body.Witness)
	if err != nil {
		h.logError(r, "disposal approval failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) handleBegin(w http.ResponseWriter, r *http.Request) {
	disposalID, ok := h.disposalID(w, r)
	if !ok {
		return
	}
	req, err := h.disposal.Begin(r.Context(), disposalID)
	if err != nil {
		h.logError(r, "disposal begin failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

type completeRequest struct {
	Witness string `json:"witness,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	disposalID, ok := h.disposalID(w, r)
	if !ok {
		return
	}
	var body completeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	req, err := h.disposal.Complete(r.Context(), service.CompleteRequest{
		DisposalID: disposalID,
		Witness:    body.Witness,
		Notes:      body.Notes,
	})
	if err != nil {
		h.logError(r, "disposal completion failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) disposalID(w http.ResponseWriter, r *http.Request) (id.DisposalID, bool) {
	disposalID, err := id.ParseDisposalID(chi.URLParam(r, "disposalID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid disposal request id"))
		return id.DisposalID{}, false
	}
	return disposalID, true
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.WarnContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
