package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/registry"
	"github.com/ZilDuck/music-nft-marketplace/internal/wallet"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deploy creates the marketplace. The owner pays the deployment fee into the
// pool, then every price becomes an item minted to the marketplace and listed
// with the owner as seller.
func Deploy(params Params, payment decimal.Decimal, settler Settler) (*Marketplace, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if !payment.Equal(params.DeploymentFee) {
		return nil, entity.PaymentMismatch(errors.Wrapf(ErrInvalidDeploymentPayment, "required %s, got %s", params.DeploymentFee, payment))
	}

	if err := settler.Settle(wallet.Transfer{From: params.Owner, To: params.Address, Amount: payment}); err != nil {
		return nil, entity.StateConflict(errors.Mark(errors.Wrap(err, "deployment payment"), ErrTransferFailed))
	}

	m := &Marketplace{
		name:       params.Name,
		symbol:     params.Symbol,
		baseURI:    params.BaseURI,
		address:    params.Address,
		owner:      params.Owner,
		artist:     params.Artist,
		royaltyFee: params.RoyaltyFee,
		registry:   registry.New(),
		items:      make([]entity.MarketItem, 0, len(params.Prices)),
		events:     make([]entity.MarketEvent, 0),
		settler:    settler,
		splitter:   NewPaymentSplitter(params.Address, params.Artist),
	}

	for _, price := range params.Prices {
		tokenId := m.registry.Mint(m.address)
		m.items = append(m.items, entity.NewListedItem(tokenId, m.owner, price))
	}

	zap.L().With(
		zap.String("address", m.address.String()),
		zap.String("owner", m.owner.String()),
		zap.String("artist", m.artist.String()),
		zap.Int("items", len(m.items)),
		zap.String("royaltyFee", m.royaltyFee.String()),
	).Info("Marketplace deployed")

	return m, nil
}
