package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"teampulse/pkg/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same store code runs
// standalone and inside an orchestrator transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists audit entries in PostgreSQL.
type PostgresStore struct {
	db DBTX
}

// NewPostgres constructs a store over a connection pool.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO feedback_audit_entries (
			id, feedback_id, prev_strengths, prev_areas_to_improve,
			prev_sentiment, prev_version, edited_by, edit_reason, edited_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.FeedbackID),
		entry.Previous.Strengths,
		entry.Previous.AreasToImprove,
		entry.Previous.Sentiment,
		entry.Previous.Version,
		uuid.UUID(entry.EditedBy),
		entry.EditReason,
		entry.EditedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByFeedback(ctx context.Context, feedbackID domain.FeedbackID) ([]Entry, error) {
	query := `
		SELECT id, feedback_id, prev_strengths, prev_areas_to_improve,
		       prev_sentiment, prev_version, edited_by, edit_reason, edited_at
		FROM feedback_audit_entries
		WHERE feedback_id = $1
		ORDER BY edited_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(feedbackID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			entryID    uuid.UUID
			feedbackID uuid.UUID
			editedBy   uuid.UUID
			editedAt   time.Time
		)
		err := rows.Scan(
			&entryID,
			&feedbackID,
			&entry.Previous.Strengths,
			&entry.Previous.AreasToImprove,
			&entry.Previous.Sentiment,
			&entry.Previous.Version,
			&editedBy,
			&entry.EditReason,
			&editedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = domain.EntryID(entryID)
		entry.FeedbackID = domain.FeedbackID(feedbackID)
		entry.EditedBy = domain.UserID(editedBy)
		entry.EditedAt = editedAt
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteMany(ctx context.Context, ids []domain.EntryID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		raw[i] = uuid.UUID(id)
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM feedback_audit_entries WHERE id = ANY($1)`,
		pq.Array(raw),
	)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted audit entries: %w", err)
	}
	return int(affected), nil
}
