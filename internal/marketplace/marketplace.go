package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/registry"
	"github.com/ZilDuck/music-nft-marketplace/internal/wallet"
	"github.com/cockroachdb/errors"
	"github.com/nu7hatch/gouuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"time"
)

// Settler moves value between identities. Settle must apply all transfers or
// none of them.
type Settler interface {
	Settle(transfers ...wallet.Transfer) error
	BalanceOf(id entity.Identity) decimal.Decimal
}

// Marketplace is the ledger state machine. Every item is either Listed (held
// by the marketplace, seller set) or Owned (held by someone else, no seller).
//
// A Marketplace is not safe for concurrent use; the host serializes calls.
type Marketplace struct {
	name    string
	symbol  string
	baseURI string

	address    entity.Identity
	owner      entity.Identity
	artist     entity.Identity
	royaltyFee decimal.Decimal

	registry *registry.Registry
	items    []entity.MarketItem
	events   []entity.MarketEvent

	settler  Settler
	splitter PaymentSplitter
	entered  bool
}

// BuyToken sells a listed item to buyer. The payment must equal the asking
// price exactly; the seller receives it in full and the artist is paid the
// current royalty fee out of the marketplace pool.
func (m *Marketplace) BuyToken(buyer entity.Identity, tokenId uint64, payment decimal.Decimal) (*entity.MarketEvent, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.exit()

	item, err := m.item(tokenId)
	if err != nil {
		return nil, err
	}
	if !item.IsListed() {
		return nil, entity.StateConflict(errors.Wrapf(ErrItemNotListed, "token %d", tokenId))
	}
	if buyer.IsZero() {
		return nil, entity.Validation(errors.Wrap(ErrInvalidIdentity, "buyer"))
	}
	if buyer == m.address {
		return nil, entity.Validation(ErrInvalidBuyer)
	}
	if !payment.Equal(item.Price) {
		return nil, entity.PaymentMismatch(errors.Wrapf(ErrPriceMismatch, "token %d costs %s, got %s", tokenId, item.Price, payment))
	}

	holder, err := m.registry.HolderOf(tokenId)
	if err != nil {
		return nil, err
	}
	if holder != m.address {
		return nil, entity.StateConflict(errors.Wrapf(ErrItemNotListed, "token %d is listed but held by %s", tokenId, holder))
	}

	seller := item.SellerIdentity()
	royalty := m.royaltyFee
	if err := m.settler.Settle(m.splitter.Split(buyer, seller, item.Price, royalty)...); err != nil {
		zap.L().With(zap.Uint64("tokenId", tokenId), zap.Error(err)).Warn("Marketplace: Purchase settlement failed")
		return nil, entity.StateConflict(errors.Mark(errors.Wrapf(err, "purchase of token %d", tokenId), ErrTransferFailed))
	}

	if err := m.registry.Transfer(tokenId, m.address, buyer); err != nil {
		// Unreachable: the holder was checked above and settlement cannot
		// change it.
		panic(err)
	}
	m.items[tokenId].Seller = nil

	ev := m.appendEvent(entity.MarketEvent{
		Type:    entity.MarketItemBoughtEvent,
		TokenId: tokenId,
		Seller:  seller,
		Buyer:   buyer,
		Price:   item.Price,
		Royalty: royalty,
	})

	zap.L().With(
		zap.Uint64("tokenId", tokenId),
		zap.String("from", seller.String()),
		zap.String("to", buyer.String()),
		zap.String("cost", item.Price.String()),
		zap.String("royalty", royalty.String()),
	).Info("Marketplace trade")

	return &ev, nil
}

// ResellToken lists an owned item again. The caller must hold the item and pay
// exactly the current royalty fee, which is kept in the pool.
func (m *Marketplace) ResellToken(caller entity.Identity, tokenId uint64, price, royaltyPayment decimal.Decimal) (*entity.MarketEvent, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.exit()

	holder, err := m.registry.HolderOf(tokenId)
	if err != nil {
		return nil, err
	}
	if holder != caller || caller == m.address {
		return nil, entity.Authorization(errors.Wrapf(ErrNotHolder, "token %d is not held by %s", tokenId, caller))
	}
	if !price.IsPositive() {
		return nil, entity.Validation(errors.Wrapf(ErrInvalidPrice, "got %s", price))
	}
	if royaltyPayment.IsZero() || !royaltyPayment.Equal(m.royaltyFee) {
		return nil, entity.PaymentMismatch(errors.Wrapf(ErrRoyaltyNotPaid, "royalty fee is %s, got %s", m.royaltyFee, royaltyPayment))
	}

	if err := m.settler.Settle(wallet.Transfer{From: caller, To: m.address, Amount: royaltyPayment}); err != nil {
		zap.L().With(zap.Uint64("tokenId", tokenId), zap.Error(err)).Warn("Marketplace: Royalty settlement failed")
		return nil, entity.StateConflict(errors.Mark(errors.Wrapf(err, "relisting of token %d", tokenId), ErrTransferFailed))
	}

	if err := m.registry.Transfer(tokenId, caller, m.address); err != nil {
		panic(err)
	}
	m.items[tokenId].Seller = caller.Ptr()
	m.items[tokenId].Price = price

	ev := m.appendEvent(entity.MarketEvent{
		Type:    entity.MarketItemRelistedEvent,
		TokenId: tokenId,
		Seller:  caller,
		Price:   price,
		Royalty: royaltyPayment,
	})

	zap.L().With(
		zap.Uint64("tokenId", tokenId),
		zap.String("seller", caller.String()),
		zap.String("cost", price.String()),
	).Info("Marketplace listing")

	return &ev, nil
}

// UpdateRoyaltyFee replaces the fee charged on later purchases and
// relistings.
func (m *Marketplace) UpdateRoyaltyFee(caller entity.Identity, fee decimal.Decimal) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	if err := m.requireOwner(caller); err != nil {
		return err
	}
	if fee.IsNegative() {
		return entity.Validation(errors.Wrapf(ErrInvalidRoyaltyFee, "got %s", fee))
	}

	zap.L().With(zap.String("from", m.royaltyFee.String()), zap.String("to", fee.String())).Info("Marketplace: Royalty fee updated")
	m.royaltyFee = fee

	return nil
}

func (m *Marketplace) item(tokenId uint64) (entity.MarketItem, error) {
	if tokenId >= uint64(len(m.items)) {
		return entity.MarketItem{}, entity.Validation(errors.Wrapf(ErrUnknownItem, "token %d", tokenId))
	}

	return m.items[tokenId], nil
}

func (m *Marketplace) appendEvent(ev entity.MarketEvent) entity.MarketEvent {
	ev.Seq = uint64(len(m.events))
	ev.CreatedAt = time.Now().UTC()
	if u, err := uuid.NewV4(); err == nil {
		ev.ID = u.String()
	}
	m.events = append(m.events, ev)

	return ev
}

// enter rejects calls made while another operation is still running, which
// can only happen when a value recipient calls back into the ledger.
func (m *Marketplace) enter() error {
	if m.entered {
		return entity.StateConflict(ErrReentrantCall)
	}
	m.entered = true

	return nil
}

func (m *Marketplace) exit() {
	m.entered = false
}
