package repository

import (
	"context"

	"swiftaza/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository interface {
	Create(ctx context.Context, tx *gorm.DB, w *model.Wallet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Wallet, error)
	FindByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*model.Wallet, error)
	// FindByIDForUpdate reads the wallet under SELECT ... FOR UPDATE; tx is required.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Wallet, error)
	Save(ctx context.Context, tx *gorm.DB, w *model.Wallet) error
	DB() *gorm.DB
}

type walletRepo struct{ db *gorm.DB }

func NewWalletRepository(db *gorm.DB) WalletRepository { return &walletRepo{db: db} }

func (r *walletRepo) DB() *gorm.DB { return r.db }

func (r *walletRepo) Create(ctx context.Context, tx *gorm.DB, w *model.Wallet) error {
	return translate(conn(ctx, r.db, tx).Omit(clause.Associations).Create(w).Error)
}

func (r *walletRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Wallet, error) {
	var w model.Wallet
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *walletRepo) FindByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*model.Wallet, error) {
	var w model.Wallet
	if err := conn(ctx, r.db, tx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *walletRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Wallet, error) {
	var w model.Wallet
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *walletRepo) Save(ctx context.Context, tx *gorm.DB, w *model.Wallet) error {
	return translate(conn(ctx, r.db, tx).Omit(clause.Associations).Save(w).Error)
}
