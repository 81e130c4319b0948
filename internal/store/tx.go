package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RunInTx executes fn inside a transaction, rolling back on error or panic.
// Every reconciliation operation runs through here so the read-decide-write
// sequence is atomic under concurrent requests for the same key.
func RunInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
