package wallet

import (
	"testing"

	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestBook_SettleMovesValue(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.Deposit("alice", amount("10")))

	err := b.Settle(
		Transfer{From: "alice", To: "market", Amount: amount("4")},
		Transfer{From: "market", To: "bob", Amount: amount("3.5")},
	)
	require.NoError(t, err)

	assert.True(t, b.BalanceOf("alice").Equal(amount("6")))
	assert.True(t, b.BalanceOf("market").Equal(amount("0.5")))
	assert.True(t, b.BalanceOf("bob").Equal(amount("3.5")))
}

func TestBook_SettleIsAllOrNothing(t *testing.T) {
	t.Run("insufficient funds in a later transfer", func(t *testing.T) {
		b := NewBook()
		require.NoError(t, b.Deposit("alice", amount("5")))

		err := b.Settle(
			Transfer{From: "alice", To: "market", Amount: amount("5")},
			Transfer{From: "market", To: "bob", Amount: amount("6")},
		)
		assert.True(t, errors.Is(err, ErrInsufficientFunds))
		assert.True(t, b.BalanceOf("alice").Equal(amount("5")))
		assert.True(t, b.BalanceOf("market").IsZero())
		assert.True(t, b.BalanceOf("bob").IsZero())
	})

	t.Run("recipient rejects funds", func(t *testing.T) {
		b := NewBook()
		require.NoError(t, b.Deposit("alice", amount("5")))
		b.SetReceiver("bob", ReceiverFunc(func(from entity.Identity, amount decimal.Decimal) error {
			return errors.New("no thanks")
		}))

		err := b.Settle(
			Transfer{From: "alice", To: "market", Amount: amount("2")},
			Transfer{From: "alice", To: "bob", Amount: amount("1")},
		)
		assert.True(t, errors.Is(err, ErrRejected))
		assert.True(t, b.BalanceOf("alice").Equal(amount("5")))
		assert.True(t, b.BalanceOf("market").IsZero())
	})

	t.Run("negative amount", func(t *testing.T) {
		b := NewBook()
		err := b.Settle(Transfer{From: "alice", To: "bob", Amount: amount("-1")})
		assert.True(t, errors.Is(err, ErrNegativeAmount))
	})
}

func TestBook_ReceiverCannotMoveValueWhileSettling(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.Deposit("alice", amount("10")))
	require.NoError(t, b.Deposit("bob", amount("5")))

	var settleErr, depositErr error
	b.SetReceiver("bob", ReceiverFunc(func(from entity.Identity, _ decimal.Decimal) error {
		settleErr = b.Settle(Transfer{From: "bob", To: "cold", Amount: b.BalanceOf("bob")})
		depositErr = b.Deposit("bob", amount("100"))
		return nil
	}))

	require.NoError(t, b.Settle(Transfer{From: "alice", To: "bob", Amount: amount("3")}))

	assert.True(t, errors.Is(settleErr, ErrReentrantSettle))
	assert.True(t, errors.Is(depositErr, ErrReentrantSettle))
	assert.True(t, b.BalanceOf("alice").Equal(amount("7")))
	assert.True(t, b.BalanceOf("bob").Equal(amount("8")))
	assert.True(t, b.BalanceOf("cold").IsZero())

	b.SetReceiver("bob", nil)
	require.NoError(t, b.Settle(Transfer{From: "bob", To: "cold", Amount: amount("8")}))
	assert.True(t, b.BalanceOf("cold").Equal(amount("8")))
}

func TestBook_ReceiverCanBeRemoved(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.Deposit("alice", amount("1")))
	b.SetReceiver("bob", ReceiverFunc(func(entity.Identity, decimal.Decimal) error {
		return errors.New("no thanks")
	}))
	b.SetReceiver("bob", nil)

	require.NoError(t, b.Settle(Transfer{From: "alice", To: "bob", Amount: amount("1")}))
	assert.True(t, b.BalanceOf("bob").Equal(amount("1")))
}

func TestBook_DepositRejectsNegative(t *testing.T) {
	b := NewBook()
	assert.True(t, errors.Is(b.Deposit("alice", amount("-2")), ErrNegativeAmount))
}

func TestBook_BalancesAndRestore(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.Deposit("alice", amount("3")))

	snapshot := b.Balances()
	require.NoError(t, b.Deposit("alice", amount("3")))
	assert.True(t, snapshot["alice"].Equal(amount("3")))

	b.Restore(snapshot)
	assert.True(t, b.BalanceOf("alice").Equal(amount("3")))
}
