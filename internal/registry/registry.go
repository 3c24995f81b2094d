package registry

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
)

var (
	ErrUnknownItem = errors.New("unknown item")
	ErrNotHolder   = errors.New("caller is not the holder")
)

// Registry is the exclusive-holder table. Token ids are dense and start at 0.
type Registry struct {
	holders []entity.Identity
}

func New() *Registry {
	return &Registry{holders: make([]entity.Identity, 0)}
}

// Restore rebuilds a registry from a previously captured holder table.
func Restore(holders []entity.Identity) *Registry {
	r := &Registry{holders: make([]entity.Identity, len(holders))}
	copy(r.holders, holders)

	return r
}

func (r *Registry) Mint(to entity.Identity) uint64 {
	r.holders = append(r.holders, to)

	return uint64(len(r.holders) - 1)
}

func (r *Registry) HolderOf(tokenId uint64) (entity.Identity, error) {
	if tokenId >= uint64(len(r.holders)) {
		return entity.NoIdentity, entity.Validation(errors.Wrapf(ErrUnknownItem, "token %d", tokenId))
	}

	return r.holders[tokenId], nil
}

func (r *Registry) Transfer(tokenId uint64, from, to entity.Identity) error {
	holder, err := r.HolderOf(tokenId)
	if err != nil {
		return err
	}
	if holder != from {
		return entity.Authorization(errors.Wrapf(ErrNotHolder, "token %d is not held by %s", tokenId, from))
	}

	r.holders[tokenId] = to

	return nil
}

func (r *Registry) BalanceOf(holder entity.Identity) uint64 {
	var balance uint64
	for _, h := range r.holders {
		if h == holder {
			balance++
		}
	}

	return balance
}

func (r *Registry) Len() uint64 {
	return uint64(len(r.holders))
}

func (r *Registry) Holders() []entity.Identity {
	holders := make([]entity.Identity, len(r.holders))
	copy(holders, r.holders)

	return holders
}
