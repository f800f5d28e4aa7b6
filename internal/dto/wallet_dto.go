package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletPinRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Pin    string `json:"pin"    validate:"required,numeric,min=4,max=6"`
}

type CreditRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

type DebitRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Pin    string          `json:"pin"    validate:"required,numeric,min=4,max=6"`
}

type WalletResponse struct {
	UserID    string          `json:"user_id"`
	WalletID  string          `json:"wallet_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type WalletPinResponse struct {
	Message     string         `json:"message"`
	Wallet      WalletResponse `json:"wallet"`
	CacheSynced bool           `json:"cache_synced"`
}
