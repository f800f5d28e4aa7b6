package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_DebitBeyondBalance_LeavesBalanceUnchanged(t *testing.T) {
	w := &Wallet{Balance: decimal.RequireFromString("10.50")}

	err := w.Debit(decimal.RequireFromString("10.51"))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("10.50")))
}

func TestWallet_DebitExactBalance_ReachesZero(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(25)}

	require.NoError(t, w.Debit(decimal.NewFromInt(25)))
	assert.True(t, w.Balance.IsZero())
}

func TestWallet_DebitThenCredit_RestoresBalance(t *testing.T) {
	start := decimal.RequireFromString("100.10")
	amounts := []string{"0.01", "33.33", "100.10", "7"}

	for _, a := range amounts {
		w := &Wallet{Balance: start}
		amt := decimal.RequireFromString(a)
		require.NoError(t, w.Debit(amt))
		require.NoError(t, w.Credit(amt))
		assert.True(t, w.Balance.Equal(start), "amount %s", a)
	}
}

func TestWallet_RejectsNonPositiveAmounts(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(5)}

	assert.ErrorIs(t, w.Credit(decimal.Zero), ErrNonPositiveAmount)
	assert.ErrorIs(t, w.Debit(decimal.NewFromInt(-1)), ErrNonPositiveAmount)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(5)))
}

func TestParseUserKind(t *testing.T) {
	cases := map[string]UserKind{
		"buyer":    KindBuyer,
		"Buyers":   KindBuyer,
		"SELLER":   KindSeller,
		"managers": KindManager,
	}
	for in, want := range cases {
		got, err := ParseUserKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseUserKind("proprietor")
	assert.Error(t, err)
}
