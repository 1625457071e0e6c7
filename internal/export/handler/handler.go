// Package handler exposes the export endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teampulse/internal/feedback/models"
	"teampulse/internal/transport/http/shared"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
	"teampulse/pkg/requestcontext"
)

// Service is the slice of the export service the HTTP layer needs.
type Service interface {
	Export(ctx context.Context, principal domain.Principal) ([]*models.Record, error)
}

// Handler handles the export endpoint.
type Handler struct {
	logger *slog.Logger
	export Service
}

func New(export Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		export: export,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/feedback/export", h.handleExport)
}

type exportResponse struct {
	Records []*models.Record `json:"records"`
	Count   int              `json:"count"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "principal missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	records, err := h.export.Export(ctx, principal)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeRateLimited) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to export feedback",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	if records == nil {
		records = []*models.Record{}
	}
	shared.WriteJSON(w, http.StatusOK, exportResponse{
		Records: records,
		Count:   len(records),
	})
}
