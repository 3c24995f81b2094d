package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
)

func (m *Marketplace) requireOwner(caller entity.Identity) error {
	if caller.IsZero() || caller != m.owner {
		return entity.Authorization(errors.Wrapf(ErrUnauthorized, "%s", caller))
	}

	return nil
}
