package service

import (
	"context"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// runNested opens a savepoint inside tx, or falls back to runTx on base.
func runNested(ctx context.Context, base, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return tx.WithContext(ctx).Transaction(fn)
	}
	return runTx(ctx, base, fn)
}
