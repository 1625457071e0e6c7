// Package audit owns the append-only edit history of feedback records.
// Entries are created only from within the lifecycle orchestrator's
// transaction for a content edit; nothing ever updates one. The only
// destructive operation is the admin bulk cleanup, which is irreversible.
package audit

import (
	"time"

	"teampulse/pkg/domain"
)

// Snapshot is the fixed, typed previous-data payload captured immediately
// before an edit. Keeping it a tagged structure rather than an open map keeps
// the trail queryable and its schema explicit.
type Snapshot struct {
	Strengths      string `json:"strengths"`
	AreasToImprove string `json:"areas_to_improve"`
	Sentiment      string `json:"sentiment"`
	Version        int    `json:"version"`
}

// Entry is one immutable history row. Entries reference the feedback record
// by id only; the record carries no back-pointer to its history.
type Entry struct {
	ID         domain.EntryID    `json:"id"`
	FeedbackID domain.FeedbackID `json:"feedback_id"`
	Previous   Snapshot          `json:"previous_data"`
	EditedBy   domain.UserID     `json:"edited_by_manager_id"`
	EditReason string            `json:"edit_reason"`
	EditedAt   time.Time         `json:"edited_at"`
}
