package models

import (
	"time"

	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
)

// MaxTextLength bounds the strengths and areas-to-improve fields.
const MaxTextLength = 1000

// Sentiment is the manager's overall read of the review period.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Record is the aggregate root for one piece of manager-to-employee feedback.
//
// Invariants:
//   - ManagerID and EmployeeID are immutable after construction
//   - Strengths and AreasToImprove are non-empty, at most MaxTextLength runes
//   - Version starts at 1 and increases by exactly 1 per committed mutation
//   - AcknowledgedAt is non-nil iff Acknowledged is true
//   - DeletedAt is non-nil iff Deleted is true
//   - Deleted is only reachable from the acknowledged state
//
// The version is both an optimistic-concurrency marker and a count of
// committed mutations; stores must bump it with a compare-and-swap so
// concurrent writers serialize rather than silently overwrite each other.
type Record struct {
	ID             domain.FeedbackID `json:"id"`
	ManagerID      domain.UserID     `json:"manager_id"`
	EmployeeID     domain.UserID     `json:"employee_id"`
	Strengths      string            `json:"strengths"`
	AreasToImprove string            `json:"areas_to_improve"`
	Sentiment      Sentiment         `json:"sentiment"`
	Acknowledged   bool              `json:"is_acknowledged"`
	AcknowledgedAt *time.Time        `json:"acknowledged_at,omitempty"`
	Version        int               `json:"version"`
	Deleted        bool              `json:"is_deleted"`
	DeletedAt      *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func validateText(field, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, field+" cannot be empty")
	}
	if len([]rune(value)) > MaxTextLength {
		return dErrors.New(dErrors.CodeInvariantViolation, field+" must be 1000 characters or less")
	}
	return nil
}

// NewRecord constructs a version-1, unacknowledged, undeleted record.
func NewRecord(id domain.FeedbackID, managerID, employeeID domain.UserID, strengths, areasToImprove string, sentiment Sentiment, now time.Time) (*Record, error) {
	if err := validateText("strengths", strengths); err != nil {
		return nil, err
	}
	if err := validateText("areas_to_improve", areasToImprove); err != nil {
		return nil, err
	}
	if !sentiment.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "sentiment must be positive, neutral or negative")
	}
	return &Record{
		ID:             id,
		ManagerID:      managerID,
		EmployeeID:     employeeID,
		Strengths:      strengths,
		AreasToImprove: areasToImprove,
		Sentiment:      sentiment,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanEdit checks whether a content edit is allowed. Edits on soft-deleted
// records are rejected; restore first.
func (r *Record) CanEdit() error {
	if r.Deleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot edit deleted feedback")
	}
	return nil
}

// ApplyEdit mutates the content fields and bumps the version. Acknowledgment
// and deletion flags are untouched. Call CanEdit and Patch.Validate first.
func (r *Record) ApplyEdit(patch EditPatch, now time.Time) {
	if patch.Strengths != nil {
		r.Strengths = *patch.Strengths
	}
	if patch.AreasToImprove != nil {
		r.AreasToImprove = *patch.AreasToImprove
	}
	if patch.Sentiment != nil {
		r.Sentiment = *patch.Sentiment
	}
	r.Version++
	r.UpdatedAt = now
}

// CanAcknowledge checks the one-time acknowledgment precondition.
func (r *Record) CanAcknowledge() error {
	if r.Acknowledged {
		return dErrors.New(dErrors.CodeInvariantViolation, "feedback is already acknowledged")
	}
	return nil
}

// ApplyAcknowledgment marks the record read by the employee. AcknowledgedAt
// is set exactly once and only moves forward from here.
func (r *Record) ApplyAcknowledgment(now time.Time) {
	r.Acknowledged = true
	r.AcknowledgedAt = &now
	r.Version++
	r.UpdatedAt = now
}

// CanSoftDelete checks the delete preconditions. Deletion before
// acknowledgment is disallowed so the employee keeps visibility into pending
// feedback.
func (r *Record) CanSoftDelete() error {
	if !r.Acknowledged {
		return dErrors.New(dErrors.CodeInvariantViolation, "feedback must be acknowledged before deletion")
	}
	if r.Deleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "feedback is already deleted")
	}
	return nil
}

// ApplySoftDelete marks the record inactive without removing it.
func (r *Record) ApplySoftDelete(now time.Time) {
	r.Deleted = true
	r.DeletedAt = &now
	r.Version++
	r.UpdatedAt = now
}

// CanRestore checks the restore precondition.
func (r *Record) CanRestore() error {
	if !r.Deleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "feedback is not deleted")
	}
	return nil
}

// ApplyRestore returns a soft-deleted record to the acknowledged state.
func (r *Record) ApplyRestore(now time.Time) {
	r.Deleted = false
	r.DeletedAt = nil
	r.Version++
	r.UpdatedAt = now
}

// Clone returns a deep copy so memory stores never hand out aliased pointers.
func (r *Record) Clone() *Record {
	clone := *r
	if r.AcknowledgedAt != nil {
		t := *r.AcknowledgedAt
		clone.AcknowledgedAt = &t
	}
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		clone.DeletedAt = &t
	}
	return &clone
}
