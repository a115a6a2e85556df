package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradelane/internal/document/models"
	"tradelane/internal/document/service"
	"tradelane/pkg/domain"
	dErrors "tradelane/pkg/domain-errors"
	"tradelane/pkg/platform/httputil"
)

// Service defines the document registry operations the handler exposes.
type Service interface {
	Issue(ctx context.Context, p service.IssueParams) (*models.Document, error)
	Transfer(ctx context.Context, documentID domain.DocumentID, transferID domain.TransferID, newOwner domain.Principal) (*models.TransferRecord, error)
	Verify(ctx context.Context, documentID domain.DocumentID, hash domain.Digest) (bool, error)
	UpdateStatus(ctx context.Context, documentID domain.DocumentID, newStatus string) error
	GetDocument(ctx context.Context, documentID domain.DocumentID) (*models.Document, error)
	GetTransfer(ctx context.Context, documentID domain.DocumentID, transferID domain.TransferID) (*models.TransferRecord, error)
	ListTransfers(ctx context.Context, documentID domain.DocumentID) ([]*models.TransferRecord, error)
	IsExpired(ctx context.Context, documentID domain.DocumentID) (bool, error)
}

// Handler wires document registry endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts document endpoints. Mutations sit behind requireAuth;
// lookups and hash verification are public.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/documents", h.handleIssue)
		r.Post("/documents/{documentID}/transfers", h.handleTransfer)
		r.Post("/documents/{documentID}/status", h.handleUpdateStatus)
	})

	r.Get("/documents/{documentID}", h.handleGet)
	r.Get("/documents/{documentID}/expired", h.handleIsExpired)
	r.Get("/documents/{documentID}/transfers", h.handleListTransfers)
	r.Get("/documents/{documentID}/transfers/{transferID}", h.handleGetTransfer)
	r.Post("/documents/{documentID}/verify", h.handleVerify)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[IssueRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := req.Digest()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.service.Issue(r.Context(), service.IssueParams{
		DocumentID:       domain.DocumentID(req.DocumentID),
		DocumentType:     req.DocumentType,
		Owner:            domain.Principal(req.Owner),
		RelatedTrade:     req.RelatedTrade,
		ExpiryDate:       req.ExpiryDate,
		Metadata:         req.Metadata,
		VerificationHash: hash,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	req, err := httputil.Decode[TransferRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Transfer(r.Context(), documentID, domain.TransferID(req.TransferID), domain.Principal(req.NewOwner))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	req, err := httputil.Decode[UpdateStatusRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), documentID, req.Status); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	req, err := httputil.Decode[VerifyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hash, err := req.Digest()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	match, err := h.service.Verify(r.Context(), documentID, hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"match": match})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	doc, err := h.service.GetDocument(r.Context(), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if doc == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	transferID := domain.TransferID(chi.URLParam(r, "transferID"))
	rec, err := h.service.GetTransfer(r.Context(), documentID, transferID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if rec == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "transfer record not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	recs, err := h.service.ListTransfers(r.Context(), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []*models.TransferRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleIsExpired(w http.ResponseWriter, r *http.Request) {
	documentID := domain.DocumentID(chi.URLParam(r, "documentID"))
	expired, err := h.service.IsExpired(r.Context(), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"expired": expired})
}
