package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/registry"
	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyInventory    = errors.New("inventory must contain at least one item")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrInvalidRoyaltyFee = errors.New("royalty fee must not be negative")
	ErrInvalidIdentity   = errors.New("identity must not be empty")
	ErrInvalidBuyer      = errors.New("marketplace cannot buy its own listing")
	ErrUnknownItem       = registry.ErrUnknownItem

	ErrUnauthorized = errors.New("caller is not the owner")
	ErrNotHolder    = registry.ErrNotHolder

	ErrItemNotListed  = errors.New("item is not listed for sale")
	ErrTransferFailed = errors.New("value transfer failed")
	ErrReentrantCall  = errors.New("reentrant call")

	ErrPriceMismatch            = errors.New("please send the asking price in order to complete the purchase")
	ErrRoyaltyNotPaid           = errors.New("must pay royalty")
	ErrInvalidDeploymentPayment = errors.New("deployment payment does not match the required amount")
)
