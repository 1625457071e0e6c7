package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"teampulse/internal/feedback/models"
	"teampulse/pkg/domain"
	"teampulse/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same store code runs
// standalone and inside an orchestrator transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists feedback records in PostgreSQL.
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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const recordColumns = `id, manager_id, employee_id, strengths, areas_to_improve, sentiment,
	is_acknowledged, acknowledged_at, version, is_deleted, deleted_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO feedback_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query, insertArgs(record)...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert feedback record: %w", err)
	}
	return nil
}

// CreateMany inserts the whole batch in one statement so the batch commits or
// fails as a unit even outside an explicit transaction.
func (s *PostgresStore) CreateMany(ctx context.Context, records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}
	builder := psql.Insert("feedback_records").Columns(
		"id", "manager_id", "employee_id", "strengths", "areas_to_improve", "sentiment",
		"is_acknowledged", "acknowledged_at", "version", "is_deleted", "deleted_at",
		"created_at", "updated_at",
	)
	for _, record := range records {
		builder = builder.Values(insertArgs(record)...)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build bulk insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("bulk insert feedback records: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.FeedbackID) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM feedback_records WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find feedback record: %w", err)
	}
	return record, nil
}

// Update persists a mutated record with a compare-and-swap on the version the
// caller observed. Zero rows affected means a concurrent writer won the race.
func (s *PostgresStore) Update(ctx context.Context, record *models.Record, expectedVersion int) error {
	query := `
		UPDATE feedback_records
		SET strengths = $1, areas_to_improve = $2, sentiment = $3,
		    is_acknowledged = $4, acknowledged_at = $5, version = $6,
		    is_deleted = $7, deleted_at = $8, updated_at = $9
		WHERE id = $10 AND version = $11
	`
	result, err := s.db.ExecContext(ctx, query,
		record.Strengths,
		record.AreasToImprove,
		string(record.Sentiment),
		record.Acknowledged,
		record.AcknowledgedAt,
		record.Version,
		record.Deleted,
		record.DeletedAt,
		record.UpdatedAt,
		uuid.UUID(record.ID),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update feedback record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update feedback record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) ExistsRecentByManager(ctx context.Context, managerID, employeeID domain.UserID, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM feedback_records
			WHERE manager_id = $1 AND employee_id = $2 AND created_at >= $3
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(managerID), uuid.UUID(employeeID), since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent feedback: %w", err)
	}
	return exists, nil
}

// List runs the filtered, sorted, paginated query. The sort column comes from
// the allow-list in models.ListQuery.Normalize, never from raw client input.
func (s *PostgresStore) List(ctx context.Context, query models.ListQuery) ([]*models.Record, int, error) {
	where := listConditions(query.Filter)

	countBuilder := psql.Select("COUNT(*)").From("feedback_records")
	for _, cond := range where {
		countBuilder = countBuilder.Where(cond)
	}
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count feedback records: %w", err)
	}

	direction := "ASC"
	if query.SortDesc {
		direction = "DESC"
	}
	listBuilder := psql.Select(
		"id", "manager_id", "employee_id", "strengths", "areas_to_improve", "sentiment",
		"is_acknowledged", "acknowledged_at", "version", "is_deleted", "deleted_at",
		"created_at", "updated_at",
	).From("feedback_records").
		OrderBy(query.SortBy + " " + direction).
		Limit(uint64(query.Limit)).
		Offset(uint64(query.Offset()))
	for _, cond := range where {
		listBuilder = listBuilder.Where(cond)
	}
	listSQL, listArgs, err := listBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan feedback record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate feedback records: %w", err)
	}
	return records, total, nil
}

func listConditions(filter models.ListFilter) []sq.Sqlizer {
	var conds []sq.Sqlizer
	if !filter.ManagerID.IsNil() {
		conds = append(conds, sq.Eq{"manager_id": uuid.UUID(filter.ManagerID)})
	}
	if !filter.EmployeeID.IsNil() {
		conds = append(conds, sq.Eq{"employee_id": uuid.UUID(filter.EmployeeID)})
	}
	if filter.Sentiment != "" {
		conds = append(conds, sq.Eq{"sentiment": string(filter.Sentiment)})
	}
	if filter.Acknowledged != nil {
		conds = append(conds, sq.Eq{"is_acknowledged": *filter.Acknowledged})
	}
	if !filter.IncludeDeleted {
		conds = append(conds, sq.Eq{"is_deleted": false})
	}
	return conds
}

func insertArgs(record *models.Record) []any {
	return []any{
		uuid.UUID(record.ID),
		uuid.UUID(record.ManagerID),
		uuid.UUID(record.EmployeeID),
		record.Strengths,
		record.AreasToImprove,
		string(record.Sentiment),
		record.Acknowledged,
		record.AcknowledgedAt,
		record.Version,
		record.Deleted,
		record.DeletedAt,
		record.CreatedAt,
		record.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record         models.Record
		id             uuid.UUID
		managerID      uuid.UUID
		employeeID     uuid.UUID
		sentiment      string
		acknowledgedAt sql.NullTime
		deletedAt      sql.NullTime
	)
	err := row.Scan(
		&id,
		&managerID,
		&employeeID,
		&record.Strengths,
		&record.AreasToImprove,
		&sentiment,
		&record.Acknowledged,
		&acknowledgedAt,
		&record.Version,
		&record.Deleted,
		&deletedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ID = domain.FeedbackID(id)
	record.ManagerID = domain.UserID(managerID)
	record.EmployeeID = domain.UserID(employeeID)
	record.Sentiment = models.Sentiment(sentiment)
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time
		record.AcknowledgedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		record.DeletedAt = &t
	}
	return &record, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
