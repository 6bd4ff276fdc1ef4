package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"listingwatch/internal/compliance/store"
	dErrors "listingwatch/pkg/domain-errors"
)

const defaultComplianceTxTimeout = 5 * time.Second

// compliancePostgresTx runs compliance writes in one READ COMMITTED
// transaction. Unique indexes catch concurrent duplicates.
type compliancePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCompliancePostgresTx(db *sql.DB, timeout time.Duration) *compliancePostgresTx {
	return &compliancePostgresTx{db: db, timeout: timeout}
}

func (t *compliancePostgresTx) RunInTx(ctx context.Context, fn func(st store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultComplianceTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("listingwatch/cmd/server").Start(ctx, "postgres.tx")
	defer span.End()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(store.NewPostgresTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
