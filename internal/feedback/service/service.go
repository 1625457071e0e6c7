// Package service is the feedback lifecycle orchestrator. Every mutating
// operation authorizes through the scope resolver, runs inside a single
// StoreTx unit, and bumps the record version by exactly one on commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"teampulse/internal/audit"
	"teampulse/internal/feedback/models"
	"teampulse/internal/feedback/scope"
	"teampulse/internal/platform/metrics"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
	"teampulse/pkg/platform/sentinel"
	"teampulse/pkg/requestcontext"
)

// FeedbackStore is the persistence port for feedback records.
type FeedbackStore interface {
	Create(ctx context.Context, record *models.Record) error
	CreateMany(ctx context.Context, records []*models.Record) error
	FindByID(ctx context.Context, id domain.FeedbackID) (*models.Record, error)
	Update(ctx context.Context, record *models.Record, expectedVersion int) error
	ExistsRecentByManager(ctx context.Context, managerID, employeeID domain.UserID, since time.Time) (bool, error)
	List(ctx context.Context, query models.ListQuery) ([]*models.Record, int, error)
}

// AuditStore is the persistence port for the append-only edit history.
type AuditStore interface {
	Append(ctx context.Context, entry audit.Entry) error
	ListByFeedback(ctx context.Context, feedbackID domain.FeedbackID) ([]audit.Entry, error)
	DeleteMany(ctx context.Context, ids []domain.EntryID) (int, error)
}

// defaultDuplicateWindow is how long after creating feedback for an employee
// the same manager is blocked from bulk-creating another record for them.
const defaultDuplicateWindow = 24 * time.Hour

// Service orchestrates the feedback record lifecycle.
type Service struct {
	stores          Stores
	tx              StoreTx
	scope           *scope.Resolver
	logger          *slog.Logger
	metrics         *metrics.Metrics
	duplicateWindow time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDuplicateWindow overrides the bulk-create duplicate-submission window.
func WithDuplicateWindow(window time.Duration) Option {
	return func(s *Service) { s.duplicateWindow = window }
}

// New constructs the orchestrator. The tx boundary defaults to the sharded
// in-memory implementation when none is supplied; production wiring passes
// the Postgres one.
func New(stores Stores, resolver *scope.Resolver, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		stores:          stores,
		tx:              tx,
		scope:           resolver,
		duplicateWindow: defaultDuplicateWindow,
	}
	if s.tx == nil {
		s.tx = NewInMemoryTx(stores)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries the fields of a single feedback creation.
type CreateRequest struct {
	EmployeeID     domain.UserID
	Strengths      string
	AreasToImprove string
	Sentiment      models.Sentiment
}

// Create authors a new feedback record at version 1.
func (s *Service) Create(ctx context.Context, principal domain.Principal, req CreateRequest) (*models.Record, error) {
	if !principal.IsManager() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only managers can create feedback")
	}

	allowed, err := s.scope.CanAuthor(ctx, principal.ID, req.EmployeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "directory lookup failed")
	}
	if !allowed {
		return nil, dErrors.New(dErrors.CodeForbidden, "employee is not on a team you manage")
	}

	record, err := models.NewRecord(
		domain.NewFeedbackID(),
		principal.ID,
		req.EmployeeID,
		req.Strengths,
		req.AreasToImprove,
		req.Sentiment,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	err = s.tx.RunInTx(ctx, record.ID.String(), func(stores Stores) error {
		if err := stores.Feedback.Create(ctx, record); err != nil {
			return translateStoreErr(err, "failed to create feedback")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, "feedback_created", "feedback_id", record.ID.String(), "manager_id", principal.ID.String())
	if s.metrics != nil {
		s.metrics.FeedbackCreated.Inc()
	}
	return record, nil
}

// Edit applies a partial content update and appends exactly one audit entry
// capturing the pre-edit field values, atomically.
func (s *Service) Edit(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID, patch models.EditPatch) (*models.Record, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Record
	err := s.tx.RunInTx(ctx, feedbackID.String(), func(stores Stores) error {
		record, err := s.findMutable(ctx, stores, principal, feedbackID)
		if err != nil {
			return err
		}
		if record.Deleted {
			// Deleted records are invisible to edits; restore first.
			return dErrors.New(dErrors.CodeNotFound, "feedback not found")
		}

		now := requestcontext.Now(ctx)
		entry := audit.Entry{
			ID:         domain.NewEntryID(),
			FeedbackID: record.ID,
			Previous: audit.Snapshot{
				Strengths:      record.Strengths,
				AreasToImprove: record.AreasToImprove,
				Sentiment:      string(record.Sentiment),
				Version:        record.Version,
			},
			EditedBy:   principal.ID,
			EditReason: patch.ChangedFields(),
			EditedAt:   now,
		}

		previousVersion := record.Version
		record.ApplyEdit(patch, now)

		if err := stores.Feedback.Update(ctx, record, previousVersion); err != nil {
			return translateStoreErr(err, "failed to update feedback")
		}
		if err := stores.Audit.Append(ctx, entry); err != nil {
			return translateStoreErr(err, "failed to append audit entry")
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, "feedback_edited", "feedback_id", feedbackID.String(), "version", updated.Version)
	if s.metrics != nil {
		s.metrics.FeedbackEdited.Inc()
	}
	return updated, nil
}

// Acknowledge marks the record read by its target employee, exactly once.
func (s *Service) Acknowledge(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error) {
	var updated *models.Record
	err := s.tx.RunInTx(ctx, feedbackID.String(), func(stores Stores) error {
		record, err := stores.Feedback.FindByID(ctx, feedbackID)
		if err != nil {
			return translateStoreErr(err, "failed to load feedback")
		}
		if !principal.IsEmployee() || record.EmployeeID != principal.ID || record.Deleted {
			return dErrors.New(dErrors.CodeNotFound, "feedback not found")
		}
		if err := record.CanAcknowledge(); err != nil {
			return dErrors.New(dErrors.CodeConflict, "feedback is already acknowledged")
		}

		previousVersion := record.Version
		record.ApplyAcknowledgment(requestcontext.Now(ctx))
		if err := stores.Feedback.Update(ctx, record, previousVersion); err != nil {
			return translateStoreErr(err, "failed to acknowledge feedback")
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, "feedback_acknowledged", "feedback_id", feedbackID.String())
	if s.metrics != nil {
		s.metrics.FeedbackAcknowledged.Inc()
	}
	return updated, nil
}

// SoftDelete marks an acknowledged record inactive. Deletion before
// acknowledgment is rejected so employees keep visibility into pending
// feedback.
func (s *Service) SoftDelete(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error) {
	var updated *models.Record
	err := s.tx.RunInTx(ctx, feedbackID.String(), func(stores Stores) error {
		record, err := s.findMutable(ctx, stores, principal, feedbackID)
		if err != nil {
			return err
		}
		if record.Deleted {
			return dErrors.New(dErrors.CodeNotFound, "feedback not found")
		}
		if !record.Acknowledged {
			return dErrors.New(dErrors.CodeConflict, "feedback must be acknowledged before deletion")
		}

		previousVersion := record.Version
		record.ApplySoftDelete(requestcontext.Now(ctx))
		if err := stores.Feedback.Update(ctx, record, previousVersion); err != nil {
			return translateStoreErr(err, "failed to delete feedback")
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, "feedback_soft_deleted", "feedback_id", feedbackID.String())
	if s.metrics != nil {
		s.metrics.FeedbackDeleted.Inc()
	}
	return updated, nil
}

// Restore returns a soft-deleted record to the acknowledged state.
func (s *Service) Restore(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error) {
	var updated *models.Record
	err := s.tx.RunInTx(ctx, feedbackID.String(), func(stores Stores) error {
		record, err := s.findMutable(ctx, stores, principal, feedbackID)
		if err != nil {
			return err
		}
		if err := record.CanRestore(); err != nil {
			return dErrors.New(dErrors.CodeNotFound, "feedback not found")
		}

		previousVersion := record.Version
		record.ApplyRestore(requestcontext.Now(ctx))
		if err := stores.Feedback.Update(ctx, record, previousVersion); err != nil {
			return translateStoreErr(err, "failed to restore feedback")
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, "feedback_restored", "feedback_id", feedbackID.String())
	if s.metrics != nil {
		s.metrics.FeedbackRestored.Inc()
	}
	return updated, nil
}

// List returns the page of records the principal is allowed to see. Admins
// see everything; managers see records they authored (deleted included);
// employees see only non-deleted records addressed to them.
func (s *Service) List(ctx context.Context, principal domain.Principal, query models.ListQuery) (*models.Page, error) {
	switch principal.Role {
	case domain.RoleAdmin:
		// No scoping.
	case domain.RoleManager:
		query.Filter.ManagerID = principal.ID
	case domain.RoleEmployee:
		query.Filter.EmployeeID = principal.ID
		query.Filter.IncludeDeleted = false
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
	query.Normalize()

	items, total, err := s.stores.Feedback.List(ctx, query)
	if err != nil {
		return nil, translateStoreErr(err, "failed to list feedback")
	}
	return &models.Page{
		Items:      items,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
	}, nil
}

// History is a feedback record together with its edit trail, newest first.
type History struct {
	Record  *models.Record `json:"record"`
	Entries []audit.Entry  `json:"audit_entries"`
}

// GetHistory returns the record and its audit entries. The two reads are
// independent, so they fan out concurrently; authorization is checked once
// both are in hand and failures conflate to not-found.
func (s *Service) GetHistory(ctx context.Context, principal domain.Principal, feedbackID domain.FeedbackID) (*History, error) {
	var (
		record  *models.Record
		entries []audit.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.stores.Feedback.FindByID(gctx, feedbackID)
		if err != nil {
			return translateStoreErr(err, "failed to load feedback")
		}
		record = r
		return nil
	})
	g.Go(func() error {
		e, err := s.stores.Audit.ListByFeedback(gctx, feedbackID)
		if err != nil {
			return translateStoreErr(err, "failed to load audit entries")
		}
		entries = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !s.scope.CanRead(principal, record) {
		return nil, dErrors.New(dErrors.CodeNotFound, "feedback not found")
	}
	return &History{Record: record, Entries: entries}, nil
}

// DeleteAuditEntries is the admin maintenance operation. It is irreversible.
func (s *Service) DeleteAuditEntries(ctx context.Context, principal domain.Principal, ids []domain.EntryID) (int, error) {
	if !principal.IsAdmin() {
		return 0, dErrors.New(dErrors.CodeForbidden, "audit cleanup requires admin role")
	}
	if len(ids) == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "entry ids must not be empty")
	}
	deleted, err := s.stores.Audit.DeleteMany(ctx, ids)
	if err != nil {
		return 0, translateStoreErr(err, "failed to delete audit entries")
	}
	s.logEvent(ctx, "audit_entries_deleted", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

// findMutable loads a record for a manager mutation. Missing records and
// records owned by someone else both come back as not-found so responses do
// not leak the existence of records outside the caller's scope.
func (s *Service) findMutable(ctx context.Context, stores Stores, principal domain.Principal, feedbackID domain.FeedbackID) (*models.Record, error) {
	record, err := stores.Feedback.FindByID(ctx, feedbackID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load feedback")
	}
	if !s.scope.IsOwner(principal, record) {
		return nil, dErrors.New(dErrors.CodeNotFound, "feedback not found")
	}
	return record, nil
}

// translateStoreErr converts store sentinels into coded domain errors.
// Anything unrecognized is a transient storage failure, reported distinctly
// from authorization and validation failures so callers know a retry with
// backoff is reasonable.
func translateStoreErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "feedback not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "a concurrent update won; re-fetch and retry")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, message)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, message)
	}
}

func (s *Service) logEvent(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
