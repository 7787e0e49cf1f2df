package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/evidence/models"
	"custos/internal/evidence/service"
	"custos/internal/transport/http/shared"
	"custos/pkg/digest"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Service defines the evidence operations the handler delegates to.
type Service interface {
	Intake(ctx context.Context, req service.IntakeRequest) (*models.EvidenceItem, error)
	Append(ctx context.Context, req service.AppendRequest) (*models.CustodyEntry, error)
	Correct(ctx context.Context, req service.CorrectRequest) (*models.CustodyEntry, error)
	History(ctx context.Context, evidenceID id.EvidenceID) ([]*models.CustodyEntry, error)
	Get(ctx context.Context, evidenceID id.EvidenceID) (*models.EvidenceItem, error)
	VerifyHash(ctx context.Context, evidenceID id.EvidenceID, content io.Reader) (digest.Verification, error)
}

// Handler handles evidence and custody endpoints.
type Handler struct {
	evidence Service
	logger   *slog.Logger
}

func New(evidence Service, logger *slog.Logger) *Handler {
	return &Handler{evidence: evidence, logger: logger}
}

// Register mounts the evidence routes on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/evidence", h.handleIntake)
	r.Get("/evidence/{evidenceID}", h.handleGet)
	r.Post("/evidence/{evidenceID}/custody", h.handleAppend)
	r.Get("/evidence/{evidenceID}/custody", h.handleHistory)
	r.Post("/evidence/{evidenceID}/custody/{entryID}/correct", h.handleCorrect)
	r.Post("/evidence/{evidenceID}/verify-hash", h.handleVerifyHash)
}

func (h *Handler) handleIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caseID, err := id.ParseCaseID(req.CaseID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case id"))
		return
	}

	intake := service.IntakeRequest{
		CaseID:      caseID,
		Description: req.Description,
		Custodian:   req.Custodian,
		Location:    req.Location,
		Purpose:     req.Purpose,
	}
	if req.ContentBase64 != "" {
		content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "content is not valid base64"))
			return
		}
		intake.Content = bytes.NewReader(content)
	}

	item, err := h.evidence.Intake(r.Context(), intake)
	if err != nil {
		h.logError(r, "evidence intake failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	evidenceID, ok := h.evidenceID(w, r)
	if !ok {
		return
	}
	item, err := h.evidence.Get(r.Context(), evidenceID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	evidenceID, ok := h.evidenceID(w, r)
	if !ok {
		return
	}
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	action, err := models.ParseAction(req.Action)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid custody action"))
		return
	}

	entry, err := h.evidence.Append(r.Context(), service.AppendRequest{
		EvidenceID:    evidenceID,
		Action:        action,
		FromCustodian: req.FromCustodian,
		ToCustodian:   req.ToCustodian,
		Location:      req.Location,
		Timestamp:     req.Timestamp,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
	})
	if err != nil {
		h.logError(r, "custody append failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	evidenceID, ok := h.evidenceID(w, r)
	if !ok {
		return
	}
	entries, err := h.evidence.History(r.Context(), evidenceID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (h *Handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.evidenceID(w, r); !ok {
		return
	}
	entryID, err := id.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid entry id"))
		return
	}
	var req correctRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	entry, err := h.evidence.Correct(r.Context(), service.CorrectRequest{
		OriginalEntryID: entryID,
		ToCustodian:     req.ToCustodian,
		Location:        req.Location,
		Purpose:         req.Purpose,
		Notes:           req.Notes,
	})
	if err != nil {
		h.logError(r, "custody correction failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleVerifyHash(w http.ResponseWriter, r *http.Request) {
	evidenceID, ok := h.evidenceID(w, r)
	if !ok {
		return
	}
	var req verifyHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "content is not valid base64"))
		return
	}

	v, err := h.evidence.VerifyHash(r.Context(), evidenceID, bytes.NewReader(content))
	if err != nil {
		h.logError(r, "hash verification failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, verificationResponse{
		Match:    v.Match,
		Stored:   v.Stored.String(),
		Computed: v.Computed.String(),
	})
}

func (h *Handler) evidenceID(w http.ResponseWriter, r *http.Request) (id.EvidenceID, bool) {
	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid evidence id"))
		return id.EvidenceID{}, false
	}
	return evidenceID, true
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.WarnContext(r.Context(), msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
