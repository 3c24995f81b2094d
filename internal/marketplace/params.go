package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Params are fixed at deployment. DeploymentFee is the exact payment the owner
// has to attach; it seeds the pool that funds royalties.
type Params struct {
	Name          string
	Symbol        string
	BaseURI       string
	Address       entity.Identity
	Owner         entity.Identity
	Artist        entity.Identity
	RoyaltyFee    decimal.Decimal
	Prices        []decimal.Decimal
	DeploymentFee decimal.Decimal
}

// DefaultDeploymentFee is one royalty fee per minted item.
func DefaultDeploymentFee(royaltyFee decimal.Decimal, items int) decimal.Decimal {
	return royaltyFee.Mul(decimal.NewFromInt(int64(items)))
}

func (p Params) validate() error {
	if len(p.Prices) == 0 {
		return entity.Validation(ErrEmptyInventory)
	}
	for i, price := range p.Prices {
		if !price.IsPositive() {
			return entity.Validation(errors.Wrapf(ErrInvalidPrice, "price of item %d is %s", i, price))
		}
	}
	if p.RoyaltyFee.IsNegative() {
		return entity.Validation(errors.Wrapf(ErrInvalidRoyaltyFee, "royalty fee is %s", p.RoyaltyFee))
	}
	if p.Address.IsZero() {
		return entity.Validation(errors.Wrap(ErrInvalidIdentity, "marketplace address"))
	}
	if p.Owner.IsZero() {
		return entity.Validation(errors.Wrap(ErrInvalidIdentity, "owner"))
	}
	if p.Artist.IsZero() {
		return entity.Validation(errors.Wrap(ErrInvalidIdentity, "artist"))
	}
	if p.Owner == p.Address || p.Artist == p.Address {
		return entity.Validation(errors.Wrap(ErrInvalidIdentity, "owner and artist must differ from the marketplace address"))
	}
	if p.DeploymentFee.IsNegative() {
		return entity.Validation(errors.Wrap(ErrInvalidDeploymentPayment, "deployment fee is negative"))
	}

	return nil
}
