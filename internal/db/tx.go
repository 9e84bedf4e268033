package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InTx runs fn with queries bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func InTx(ctx context.Context, sqlDB *sql.DB, fn func(tx *Queries) error) error {
	sqlTx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(New(sqlTx))
	if err != nil {
		rollbackErr := sqlTx.Rollback()
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rollbackErr))
		}
		return err
	}

	err = sqlTx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
