package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientFunds is returned by Debit when amount exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient balance")
	// ErrNonPositiveAmount rejects zero and negative credit/debit amounts.
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
)

// Wallet holds a user's balance. Each user owns at most one wallet
// (wallets.user_id is unique).
type Wallet struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID       `gorm:"type:char(36);uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PinHash   string          `gorm:"type:varchar(255);not null"`
	User      User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Wallet) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// Debit subtracts amount from the balance. An over-debit leaves the wallet
// untouched; there are no partial debits.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}
