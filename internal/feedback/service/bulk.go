package service

import (
	"context"

	"teampulse/internal/feedback/bulk"
	"teampulse/internal/feedback/models"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
	"teampulse/pkg/requestcontext"
)

// BulkResult reports a committed bulk creation.
type BulkResult struct {
	CreatedCount int              `json:"created_count"`
	Records      []*models.Record `json:"records"`
}

// BulkCreate validates and inserts a whole batch of feedback records, or
// nothing at all. Local validation (size, field bounds, in-batch duplicate
// employees) runs before the transaction; membership, active-employee and
// duplicate-window checks run inside it so they observe one consistent
// snapshot together with the insert.
func (s *Service) BulkCreate(ctx context.Context, principal domain.Principal, entries []models.BulkEntry) (*BulkResult, error) {
	if !principal.IsManager() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only managers can create feedback")
	}

	validated, err := bulk.Validate(entries)
	if err != nil {
		if s.metrics != nil {
			s.metrics.BulkBatchesRejected.Inc()
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	cutoff := now.Add(-s.duplicateWindow)

	var records []*models.Record
	err = s.tx.RunInTx(ctx, principal.ID.String(), func(stores Stores) error {
		for _, entry := range validated {
			active, err := s.scope.IsActiveEmployee(ctx, entry.EmployeeID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "directory lookup failed")
			}
			if !active {
				return dErrors.New(dErrors.CodeValidation,
					"employee "+entry.EmployeeID.String()+" is not an active employee")
			}

			allowed, err := s.scope.CanAuthor(ctx, principal.ID, entry.EmployeeID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "directory lookup failed")
			}
			if !allowed {
				return dErrors.New(dErrors.CodeForbidden,
					"employee "+entry.EmployeeID.String()+" is not on a team you manage")
			}

			recent, err := stores.Feedback.ExistsRecentByManager(ctx, principal.ID, entry.EmployeeID, cutoff)
			if err != nil {
				return translateStoreErr(err, "failed to check recent feedback")
			}
			if recent {
				return dErrors.New(dErrors.CodeConflict,
					"employee "+entry.EmployeeID.String()+" already received feedback from you in the last 24 hours")
			}
		}

		records = make([]*models.Record, 0, len(validated))
		for _, entry := range validated {
			record, err := models.NewRecord(
				domain.NewFeedbackID(),
				principal.ID,
				entry.EmployeeID,
				entry.Strengths,
				entry.AreasToImprove,
				entry.Sentiment,
				now,
			)
			if err != nil {
				// Field bounds were checked locally; reaching this is a bug.
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to construct record")
			}
			records = append(records, record)
		}

		if err := stores.Feedback.CreateMany(ctx, records); err != nil {
			return translateStoreErr(err, "failed to insert batch")
		}
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.BulkBatchesRejected.Inc()
		}
		return nil, err
	}

	s.logEvent(ctx, "feedback_bulk_created", "manager_id", principal.ID.String(), "count", len(records))
	if s.metrics != nil {
		s.metrics.BulkBatchesAccepted.Inc()
	}
	return &BulkResult{CreatedCount: len(records), Records: records}, nil
}
