package service

import (
	"context"
	"errors"

	"swiftaza/internal/dto"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type WalletService interface {
	// CreateOrUpdatePin creates the user's wallet, or re-hashes the PIN of
	// the existing one, then mirrors wallet_id into the profile record.
	CreateOrUpdatePin(ctx context.Context, userID uuid.UUID, pin string) (*dto.WalletPinResponse, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*dto.WalletResponse, error)
	VerifyPin(ctx context.Context, walletID uuid.UUID, pin string) error
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*dto.WalletResponse, error)
	// Debit fails with ErrInsufficientFunds and leaves the balance untouched
	// when amount exceeds it.
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*dto.WalletResponse, error)
}

type walletService struct {
	wallets repository.WalletRepository
	users   repository.UserRepository
	coord   *Coordinator
}

func NewWalletService(wallets repository.WalletRepository, users repository.UserRepository, coord *Coordinator) WalletService {
	return &walletService{wallets: wallets, users: users, coord: coord}
}

func (s *walletService) CreateOrUpdatePin(ctx context.Context, userID uuid.UUID, pin string) (*dto.WalletPinResponse, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return nil, err
	}

	var w *model.Wallet
	err = runTx(ctx, s.wallets.DB(), func(tx *gorm.DB) error {
		existing, err := s.wallets.FindByUserID(ctx, tx, userID)
		switch {
		case err == nil:
			existing.PinHash = string(hash)
			w = existing
			return s.wallets.Save(ctx, tx, w)
		case errors.Is(err, repository.ErrNotFound):
			w = &model.Wallet{UserID: userID, Balance: decimal.Zero, PinHash: string(hash)}
			return s.wallets.Create(ctx, tx, w)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	status := s.coord.Mirror(ctx, userID)
	return &dto.WalletPinResponse{
		Message:     "Wallet created successfully",
		Wallet:      walletToResponse(w),
		CacheSynced: status.Synced,
	}, nil
}

func (s *walletService) GetWallet(ctx context.Context, userID uuid.UUID) (*dto.WalletResponse, error) {
	w, err := s.wallets.FindByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	resp := walletToResponse(w)
	return &resp, nil
}

func (s *walletService) VerifyPin(ctx context.Context, walletID uuid.UUID, pin string) error {
	w, err := s.wallets.FindByID(ctx, walletID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(w.PinHash), []byte(pin)) != nil {
		return ErrInvalidPin
	}
	return nil
}

func (s *walletService) Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*dto.WalletResponse, error) {
	return s.apply(ctx, walletID, func(w *model.Wallet) error { return w.Credit(amount) })
}

func (s *walletService) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (*dto.WalletResponse, error) {
	return s.apply(ctx, walletID, func(w *model.Wallet) error { return w.Debit(amount) })
}

// apply reads the wallet under a row lock, mutates it and saves it in one
// transaction. A failed mutation rolls back without writing.
func (s *walletService) apply(ctx context.Context, walletID uuid.UUID, mutate func(*model.Wallet) error) (*dto.WalletResponse, error) {
	var w *model.Wallet
	err := runTx(ctx, s.wallets.DB(), func(tx *gorm.DB) error {
		var err error
		w, err = s.wallets.FindByIDForUpdate(ctx, tx, walletID)
		if err != nil {
			return err
		}
		if err := mutate(w); err != nil {
			return err
		}
		return s.wallets.Save(ctx, tx, w)
	})
	if err != nil {
		if errors.Is(err, model.ErrNonPositiveAmount) {
			return nil, validationErr("%v", err)
		}
		return nil, err
	}
	resp := walletToResponse(w)
	return &resp, nil
}

func walletToResponse(w *model.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		UserID:    w.UserID.String(),
		WalletID:  w.ID.String(),
		Balance:   w.Balance,
		UpdatedAt: w.UpdatedAt,
	}
}
