// Package db holds helpers shared by the SQL store backends.
package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxBeginner starts transactions. *sql.DB and *sqlx.DB both qualify.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise. Errors from fn are returned unwrapped.
func WithTx(ctx context.Context, conn TxBeginner, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
