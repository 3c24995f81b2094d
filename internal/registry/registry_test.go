package registry

import (
	"testing"

	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_MintAssignsDenseIds(t *testing.T) {
	r := New()

	assert.Equal(t, uint64(0), r.Mint("market"))
	assert.Equal(t, uint64(1), r.Mint("market"))
	assert.Equal(t, uint64(2), r.Mint("alice"))
	assert.Equal(t, uint64(3), r.Len())

	holder, err := r.HolderOf(2)
	require.NoError(t, err)
	assert.Equal(t, entity.Identity("alice"), holder)
}

func TestRegistry_HolderOfUnknownItem(t *testing.T) {
	r := New()
	r.Mint("market")

	_, err := r.HolderOf(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownItem))
	assert.True(t, errors.Is(err, entity.ErrValidation))
}

func TestRegistry_Transfer(t *testing.T) {
	t.Run("holder can transfer", func(t *testing.T) {
		r := New()
		r.Mint("market")

		require.NoError(t, r.Transfer(0, "market", "alice"))

		holder, _ := r.HolderOf(0)
		assert.Equal(t, entity.Identity("alice"), holder)
	})

	t.Run("non holder is rejected", func(t *testing.T) {
		r := New()
		r.Mint("market")

		err := r.Transfer(0, "bob", "alice")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotHolder))
		assert.True(t, errors.Is(err, entity.ErrAuthorization))

		holder, _ := r.HolderOf(0)
		assert.Equal(t, entity.Identity("market"), holder)
	})

	t.Run("unknown item", func(t *testing.T) {
		r := New()
		err := r.Transfer(5, "market", "alice")
		assert.True(t, errors.Is(err, ErrUnknownItem))
	})
}

func TestRegistry_BalanceOf(t *testing.T) {
	r := New()
	for i := 0; i < 4; i++ {
		r.Mint("market")
	}
	require.NoError(t, r.Transfer(1, "market", "alice"))
	require.NoError(t, r.Transfer(3, "market", "alice"))

	assert.Equal(t, uint64(2), r.BalanceOf("market"))
	assert.Equal(t, uint64(2), r.BalanceOf("alice"))
	assert.Equal(t, uint64(0), r.BalanceOf("bob"))
}

func TestRegistry_RestoreCopiesHolders(t *testing.T) {
	holders := []entity.Identity{"market", "alice"}
	r := Restore(holders)
	holders[0] = "mallory"

	holder, err := r.HolderOf(0)
	require.NoError(t, err)
	assert.Equal(t, entity.Identity("market"), holder)

	snapshot := r.Holders()
	snapshot[1] = "mallory"
	holder, _ = r.HolderOf(1)
	assert.Equal(t, entity.Identity("alice"), holder)
}
