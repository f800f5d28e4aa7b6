package service

import (
	"context"
	"testing"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWallet_CreateCreditDebit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Wal", "wal@x.io")

	created, err := f.walletSvc.CreateOrUpdatePin(ctx, u.ID, "1234")
	require.NoError(t, err)
	assert.True(t, created.CacheSynced)
	assert.True(t, created.Wallet.Balance.IsZero())
	wid := uuid.MustParse(created.Wallet.WalletID)

	rec, err := f.profiles.Get(ctx, u.ID.String())
	require.NoError(t, err)
	require.NotNil(t, rec.WalletID)
	assert.Equal(t, created.Wallet.WalletID, *rec.WalletID)

	w, err := f.walletSvc.Credit(ctx, wid, d("100.50"))
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(d("100.50")))

	w, err = f.walletSvc.Debit(ctx, wid, d("40.25"))
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(d("60.25")))

	_, err = f.walletSvc.Debit(ctx, wid, d("60.26"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	got, err := f.walletSvc.GetWallet(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("60.25")))
}

func TestWallet_NonPositiveAmountIsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindBuyer, "Zed", "zed@x.io")
	created, err := f.walletSvc.CreateOrUpdatePin(ctx, u.ID, "1234")
	require.NoError(t, err)
	wid := uuid.MustParse(created.Wallet.WalletID)

	for _, amt := range []string{"0", "-5"} {
		_, err := f.walletSvc.Credit(ctx, wid, d(amt))
		assert.ErrorIs(t, err, ErrValidation, amt)
		_, err = f.walletSvc.Debit(ctx, wid, d(amt))
		assert.ErrorIs(t, err, ErrValidation, amt)
	}
}

func TestWallet_PinRotationKeepsWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, model.KindSeller, "Pin", "pin@x.io")

	first, err := f.walletSvc.CreateOrUpdatePin(ctx, u.ID, "1111")
	require.NoError(t, err)
	wid := uuid.MustParse(first.Wallet.WalletID)
	_, err = f.walletSvc.Credit(ctx, wid, d("5"))
	require.NoError(t, err)

	second, err := f.walletSvc.CreateOrUpdatePin(ctx, u.ID, "2222")
	require.NoError(t, err)
	assert.Equal(t, first.Wallet.WalletID, second.Wallet.WalletID)
	assert.True(t, second.Wallet.Balance.Equal(d("5")))
	assert.Len(t, f.db.wallets, 1)

	assert.ErrorIs(t, f.walletSvc.VerifyPin(ctx, wid, "1111"), ErrInvalidPin)
	assert.NoError(t, f.walletSvc.VerifyPin(ctx, wid, "2222"))
}

func TestWallet_UnknownUserOrWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.walletSvc.CreateOrUpdatePin(ctx, uuid.New(), "1234")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.walletSvc.Credit(ctx, uuid.New(), d("1"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.walletSvc.GetWallet(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
