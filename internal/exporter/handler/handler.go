package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tradelane/internal/exporter/models"
	"tradelane/pkg/domain"
	dErrors "tradelane/pkg/domain-errors"
	"tradelane/pkg/platform/httputil"
)

// Service defines the exporter registry operations the handler exposes.
type Service interface {
	Register(ctx context.Context, exporterID domain.ExporterID, name, country string) (*models.Exporter, error)
	Verify(ctx context.Context, exporterID domain.ExporterID, status string) error
	AddTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID, buyer domain.Principal, amount uint64) (*models.TransactionRecord, error)
	RateTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID, rating uint32) error
	GetExporterInfo(ctx context.Context, exporterID domain.ExporterID) (*models.Exporter, error)
	GetTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID) (*models.TransactionRecord, error)
	ListTransactions(ctx context.Context, exporterID domain.ExporterID) ([]*models.TransactionRecord, error)
	TransferAdmin(ctx context.Context, newAdmin domain.Principal) error
}

// Handler wires exporter registry endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts exporter endpoints. Mutations sit behind requireAuth;
// profile and transaction lookups are public.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/exporters", h.handleRegister)
		r.Post("/exporters/{exporterID}/verification", h.handleVerify)
		r.Post("/exporters/{exporterID}/transactions", h.handleAddTransaction)
		r.Post("/exporters/{exporterID}/transactions/{transactionID}/rating", h.handleRateTransaction)
		r.Post("/registry/admin/transfer", h.handleTransferAdmin)
	})

	r.Get("/exporters/{exporterID}", h.handleGet)
	r.Get("/exporters/{exporterID}/transactions", h.handleListTransactions)
	r.Get("/exporters/{exporterID}/transactions/{transactionID}", h.handleGetTransaction)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[RegisterRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	exp, err := h.service.Register(r.Context(), domain.ExporterID(req.ExporterID), req.Name, req.Country)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, exp)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	exporterID := domain.ExporterID(chi.URLParam(r, "exporterID"))
	req, err := httputil.Decode[VerifyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Verify(r.Context(), exporterID, req.Status); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	exporterID := domain.ExporterID(chi.URLParam(r, "exporterID"))
	req, err := httputil.Decode[AddTransactionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.AddTransaction(r.Context(), exporterID,
		domain.TransactionID(req.TransactionID), domain.Principal(req.Buyer), req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleRateTransaction(w http.ResponseWriter, r *http.Request) {
	exporterID := domain.ExporterID(chi.URLParam(r, "exporterID"))
	transactionID := domain.TransactionID(chi.URLParam(r, "transactionID"))
	req, err := httputil.Decode[RateTransactionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RateTransaction(r.Context(), exporterID, transactionID, req.Rating); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[TransferAdminRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.TransferAdmin(r.Context(), domain.Principal(req.NewAdmin)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	exporterID := domain.ExporterID(chi.URLParam(r, "exporterID"))
	exp, err := h.service.GetExporterInfo(r.Context(), exporterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if exp == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "exporter not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, exp)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	exporterID := domain.ExporterID(chi.URLParam(r, "exporterID"))
	transactionID := domain.TransactionID(chi.URLParam(r, "transactionID"))
	rec, err := h.service.GetTransaction(r.Context(), exporterID, transactionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if rec == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "transaction not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	exporterID := domain.ExporterID(chi.URLParam(r, "exporterID"))
	recs, err := h.service.ListTransactions(r.Context(), exporterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []*models.TransactionRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}
