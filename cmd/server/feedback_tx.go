package main

import (
	"context"
	"database/sql"
	"time"

	auditstore "teampulse/internal/audit"
	feedbackservice "teampulse/internal/feedback/service"
	feedbackstore "teampulse/internal/feedback/store"
	dErrors "teampulse/pkg/domain-errors"
)

const defaultFeedbackTxTimeout = 5 * time.Second

// feedbackPostgresTx runs lifecycle mutations inside one database transaction
// so a record update and its audit entry commit or roll back together. The
// serialization key is ignored; row-level locking does the serializing.
type feedbackPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newFeedbackPostgresTx(db *sql.DB) *feedbackPostgresTx {
	return &feedbackPostgresTx{db: db}
}

func (t *feedbackPostgresTx) RunInTx(ctx context.Context, _ string, fn func(stores feedbackservice.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultFeedbackTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := feedbackservice.Stores{
		Feedback: feedbackstore.NewPostgresTx(tx),
		Audit:    auditstore.NewPostgresTx(tx),
	}
	if err := fn(stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
