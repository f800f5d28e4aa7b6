package repository

import (
	"context"

	"gorm.io/gorm"
)

// conn picks the caller's transaction when present, the base handle otherwise.
func conn(ctx context.Context, base, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return base.WithContext(ctx)
}
