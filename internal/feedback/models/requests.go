package models

import (
	"strings"

	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
)

// EditPatch carries the optional content fields of an edit. Nil means "leave
// unchanged"; at least one field must be supplied.
type EditPatch struct {
	Strengths      *string    `json:"strengths,omitempty"`
	AreasToImprove *string    `json:"areas_to_improve,omitempty"`
	Sentiment      *Sentiment `json:"sentiment,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EditPatch) IsEmpty() bool {
	return p.Strengths == nil && p.AreasToImprove == nil && p.Sentiment == nil
}

// Validate enforces field bounds on whichever fields are present.
func (p EditPatch) Validate() error {
	if p.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be supplied")
	}
	if p.Strengths != nil {
		if err := validateText("strengths", *p.Strengths); err != nil {
			return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
	}
	if p.AreasToImprove != nil {
		if err := validateText("areas_to_improve", *p.AreasToImprove); err != nil {
			return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
	}
	if p.Sentiment != nil && !p.Sentiment.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "sentiment must be positive, neutral or negative")
	}
	return nil
}

// ChangedFields names the fields the patch touches, for the audit edit reason.
func (p EditPatch) ChangedFields() string {
	var fields []string
	if p.Strengths != nil {
		fields = append(fields, "strengths")
	}
	if p.AreasToImprove != nil {
		fields = append(fields, "areas_to_improve")
	}
	if p.Sentiment != nil {
		fields = append(fields, "sentiment")
	}
	return "edited fields: " + strings.Join(fields, ", ")
}

// BulkEntry is one candidate record in a bulk creation batch.
type BulkEntry struct {
	EmployeeID     string    `json:"employee_id"`
	Strengths      string    `json:"strengths"`
	AreasToImprove string    `json:"areas_to_improve"`
	Sentiment      Sentiment `json:"sentiment"`
}

// Sort allow-list for ListQuery. Unknown fields silently fall back to the
// default rather than erroring, so clients with stale field names degrade
// instead of breaking.
const (
	SortByCreatedAt      = "created_at"
	SortByUpdatedAt      = "updated_at"
	SortBySentiment      = "sentiment"
	SortByAcknowledgedAt = "acknowledged_at"

	defaultListLimit = 20
	maxListLimit     = 50
)

var allowedSortFields = map[string]bool{
	SortByCreatedAt:      true,
	SortByUpdatedAt:      true,
	SortBySentiment:      true,
	SortByAcknowledgedAt: true,
}

// ListFilter narrows a paginated query. Zero values mean "no constraint".
// Scoping by principal is applied by the service on top of this filter.
type ListFilter struct {
	ManagerID      domain.UserID
	EmployeeID     domain.UserID
	Sentiment      Sentiment
	Acknowledged   *bool
	IncludeDeleted bool
}

// ListQuery is a normalized pagination request.
type ListQuery struct {
	Filter   ListFilter
	SortBy   string
	SortDesc bool
	Page     int
	Limit    int
}

// Normalize clamps pagination and applies the sort allow-list.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if !allowedSortFields[q.SortBy] {
		q.SortBy = SortByCreatedAt
		q.SortDesc = true
	}
}

// Offset converts page/limit into a row offset.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of results plus the metadata clients need to paginate.
type Page struct {
	Items      []*Record `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}
