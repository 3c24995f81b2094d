package marketplace

import (
	"testing"

	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore(t *testing.T) {
	m, book := deploy(t)
	_, err := m.BuyToken(user1, 2, prices[2])
	require.NoError(t, err)

	restored, err := Restore(m.Snapshot(), book)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot(), restored.Snapshot())

	_, err = restored.ResellToken(user1, 2, eth("9"), royaltyFee)
	require.NoError(t, err)

	original, _ := m.MarketItem(2)
	assert.False(t, original.IsListed())
}

func TestRestore_RejectsCorruptState(t *testing.T) {
	tests := map[string]func(s *State){
		"holder mismatch":   func(s *State) { s.Holders[0] = user1 },
		"missing holder":    func(s *State) { s.Holders = s.Holders[:3] },
		"empty holder":      func(s *State) { s.Holders[1] = entity.NoIdentity },
		"token id gap":      func(s *State) { s.Items[4].TokenId = 9 },
		"no items":          func(s *State) { s.Items = nil; s.Holders = nil },
		"missing owner":     func(s *State) { s.Owner = "" },
		"listed, no seller": func(s *State) { s.Items[2].Seller = entity.NoIdentity.Ptr() },
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			m, book := deploy(t)
			state := m.Snapshot()
			corrupt(&state)

			_, err := Restore(state, book)
			assert.True(t, errors.Is(err, ErrCorruptState))
			assert.True(t, errors.Is(err, entity.ErrStateConflict))
		})
	}
}
