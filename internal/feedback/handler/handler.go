// Package handler exposes the feedback lifecycle over HTTP. It stays thin:
// decode, resolve the principal, delegate, encode. All authorization and
// state rules live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"teampulse/internal/audit"
	"teampulse/internal/feedback/models"
	"teampulse/internal/feedback/service"
	"teampulse/internal/transport/http/shared"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
	"teampulse/pkg/requestcontext"
)

// Service is the slice of the feedback service the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, principal domain.Principal, req service.CreateRequest) (*models.Record, error)
	Edit(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID, patch models.EditPatch) (*models.Record, error)
	Acknowledge(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error)
	SoftDelete(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error)
	Restore(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error)
	BulkCreate(ctx context.Context, principal domain.Principal, entries []models.BulkEntry) (*service.BulkResult, error)
	List(ctx context.Context, principal domain.Principal, query models.ListQuery) (*models.Page, error)
	GetHistory(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*service.History, error)
	DeleteAuditEntries(ctx context.Context, principal domain.Principal, ids []domain.EntryID) (int, error)
}

// Handler handles feedback lifecycle endpoints.
type Handler struct {
	logger   *slog.Logger
	feedback Service
}

// New creates a new feedback Handler.
func New(feedback Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		feedback: feedback,
	}
}

// Register registers the feedback routes. The shared middleware chain
// (recovery, request id, auth, ...) is installed by the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/feedback", h.handleCreate)
	r.Get("/feedback", h.handleList)
	r.Post("/feedback/bulk", h.handleBulkCreate)
	r.Patch("/feedback/{feedbackID}", h.handleEdit)
	r.Delete("/feedback/{feedbackID}", h.handleSoftDelete)
	r.Post("/feedback/{feedbackID}/acknowledge", h.handleAcknowledge)
	r.Post("/feedback/{feedbackID}/restore", h.handleRestore)
	r.Get("/feedback/{feedbackID}/history", h.handleHistory)
	r.Delete("/audit/entries", h.handleDeleteAuditEntries)
}

type createFeedbackRequest struct {
	EmployeeID     string           `json:"employee_id"`
	Strengths      string           `json:"strengths"`
	AreasToImprove string           `json:"areas_to_improve"`
	Sentiment      models.Sentiment `json:"sentiment"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req createFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid create feedback request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	employeeID, err := domain.ParseUserID(req.EmployeeID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "employee_id must be a valid id"))
		return
	}

	record, err := h.feedback.Create(ctx, principal, service.CreateRequest{
		EmployeeID:     employeeID,
		Strengths:      req.Strengths,
		AreasToImprove: req.AreasToImprove,
		Sentiment:      req.Sentiment,
	})
	if err != nil {
		h.writeServiceError(w, r, "failed to create feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	feedbackID, ok := h.feedbackID(w, r)
	if !ok {
		return
	}

	var patch models.EditPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.warn(ctx, "invalid edit feedback request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.feedback.Edit(ctx, principal, feedbackID, patch)
	if err != nil {
		h.writeServiceError(w, r, "failed to edit feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	feedbackID, ok := h.feedbackID(w, r)
	if !ok {
		return
	}

	record, err := h.feedback.Acknowledge(r.Context(), principal, feedbackID)
	if err != nil {
		h.writeServiceError(w, r, "failed to acknowledge feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	feedbackID, ok := h.feedbackID(w, r)
	if !ok {
		return
	}

	record, err := h.feedback.SoftDelete(r.Context(), principal, feedbackID)
	if err != nil {
		h.writeServiceError(w, r, "failed to delete feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	feedbackID, ok := h.feedbackID(w, r)
	if !ok {
		return
	}

	record, err := h.feedback.Restore(r.Context(), principal, feedbackID)
	if err != nil {
		h.writeServiceError(w, r, "failed to restore feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, record)
}

type bulkCreateRequest struct {
	Entries []models.BulkEntry `json:"entries"`
}

func (h *Handler) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req bulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid bulk create request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.feedback.BulkCreate(ctx, principal, req.Entries)
	if err != nil {
		h.writeServiceError(w, r, "failed to bulk create feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	query, err := parseListQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := h.feedback.List(r.Context(), principal, query)
	if err != nil {
		h.writeServiceError(w, r, "failed to list feedback", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, page)
}

type historyResponse struct {
	Record  *models.Record `json:"record"`
	Entries []audit.Entry  `json:"audit_entries"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	feedbackID, ok := h.feedbackID(w, r)
	if !ok {
		return
	}

	history, err := h.feedback.GetHistory(r.Context(), principal, feedbackID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load feedback history", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, historyResponse{
		Record:  history.Record,
		Entries: history.Entries,
	})
}

type deleteAuditEntriesRequest struct {
	EntryIDs []string `json:"entry_ids"`
}

type deleteAuditEntriesResponse struct {
	DeletedCount int `json:"deleted_count"`
}

func (h *Handler) handleDeleteAuditEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req deleteAuditEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid audit cleanup request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ids := make([]domain.EntryID, 0, len(req.EntryIDs))
	for _, raw := range req.EntryIDs {
		id, err := domain.ParseEntryID(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "entry_ids must be valid ids"))
			return
		}
		ids = append(ids, id)
	}

	deleted, err := h.feedback.DeleteAuditEntries(ctx, principal, ids)
	if err != nil {
		h.writeServiceError(w, r, "failed to delete audit entries", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, deleteAuditEntriesResponse{DeletedCount: deleted})
}

// parseListQuery maps query parameters onto a ListQuery. Unknown sort fields
// fall back to the default inside Normalize; malformed filter values are
// rejected so a typo does not silently widen the result set.
func parseListQuery(r *http.Request) (models.ListQuery, error) {
	q := r.URL.Query()
	query := models.ListQuery{
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("sort_order") != "asc",
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return query, dErrors.New(dErrors.CodeValidation, "page must be an integer")
		}
		query.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, dErrors.New(dErrors.CodeValidation, "limit must be an integer")
		}
		query.Limit = limit
	}

	if raw := q.Get("employee_id"); raw != "" {
		employeeID, err := domain.ParseUserID(raw)
		if err != nil {
			return query, dErrors.New(dErrors.CodeValidation, "employee_id must be a valid id")
		}
		query.Filter.EmployeeID = employeeID
	}
	if raw := q.Get("manager_id"); raw != "" {
		managerID, err := domain.ParseUserID(raw)
		if err != nil {
			return query, dErrors.New(dErrors.CodeValidation, "manager_id must be a valid id")
		}
		query.Filter.ManagerID = managerID
	}
	if raw := q.Get("sentiment"); raw != "" {
		sentiment := models.Sentiment(raw)
		if !sentiment.IsValid() {
			return query, dErrors.New(dErrors.CodeValidation, "sentiment must be positive, neutral or negative")
		}
		query.Filter.Sentiment = sentiment
	}
	if raw := q.Get("acknowledged"); raw != "" {
		acknowledged, err := strconv.ParseBool(raw)
		if err != nil {
			return query, dErrors.New(dErrors.CodeValidation, "acknowledged must be true or false")
		}
		query.Filter.Acknowledged = &acknowledged
	}
	if raw := q.Get("include_deleted"); raw != "" {
		includeDeleted, err := strconv.ParseBool(raw)
		if err != nil {
			return query, dErrors.New(dErrors.CodeValidation, "include_deleted must be true or false")
		}
		query.Filter.IncludeDeleted = includeDeleted
	}

	return query, nil
}

// principal pulls the authenticated principal set by the auth middleware.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal, ok := requestcontext.Principal(r.Context())
	if !ok {
		// Reachable only if the route is registered without RequireAuth.
		h.logger.ErrorContext(r.Context(), "principal missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.Principal{}, false
	}
	return principal, true
}

func (h *Handler) feedbackID(w http.ResponseWriter, r *http.Request) (domain.FeedbackID, bool) {
	id, err := domain.ParseFeedbackID(chi.URLParam(r, "feedbackID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "feedback id must be a valid id"))
		return domain.FeedbackID{}, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	logArgs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	switch code {
	case dErrors.CodeUnavailable, dErrors.CodeTimeout, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, message, logArgs...)
	default:
		h.logger.WarnContext(ctx, message, logArgs...)
	}
	shared.WriteError(w, err)
}

func (h *Handler) warn(ctx context.Context, message string, err error) {
	h.logger.WarnContext(ctx, message,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
