package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/registry"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var ErrCorruptState = errors.New("corrupt marketplace state")

// State is a full copy of the ledger, used to persist it and to roll it back.
type State struct {
	Name       string
	Symbol     string
	BaseURI    string
	Address    entity.Identity
	Owner      entity.Identity
	Artist     entity.Identity
	RoyaltyFee decimal.Decimal
	Items      []entity.MarketItem
	Holders    []entity.Identity
	Events     []entity.MarketEvent
}

func (m *Marketplace) Snapshot() State {
	items := make([]entity.MarketItem, len(m.items))
	copy(items, m.items)

	return State{
		Name:       m.name,
		Symbol:     m.symbol,
		BaseURI:    m.baseURI,
		Address:    m.address,
		Owner:      m.owner,
		Artist:     m.artist,
		RoyaltyFee: m.royaltyFee,
		Items:      items,
		Holders:    m.registry.Holders(),
		Events:     m.Events(),
	}
}

// Restore rebuilds a marketplace from a snapshot, checking that every item is
// consistently either listed or owned.
func Restore(state State, settler Settler) (*Marketplace, error) {
	if err := state.check(); err != nil {
		return nil, entity.StateConflict(err)
	}

	items := make([]entity.MarketItem, len(state.Items))
	copy(items, state.Items)
	events := make([]entity.MarketEvent, len(state.Events))
	copy(events, state.Events)

	return &Marketplace{
		name:       state.Name,
		symbol:     state.Symbol,
		baseURI:    state.BaseURI,
		address:    state.Address,
		owner:      state.Owner,
		artist:     state.Artist,
		royaltyFee: state.RoyaltyFee,
		registry:   registry.Restore(state.Holders),
		items:      items,
		events:     events,
		settler:    settler,
		splitter:   NewPaymentSplitter(state.Address, state.Artist),
	}, nil
}

func (s State) check() error {
	if s.Address.IsZero() || s.Owner.IsZero() || s.Artist.IsZero() {
		return errors.Wrap(ErrCorruptState, "missing identity")
	}
	if len(s.Items) == 0 {
		return errors.Wrap(ErrCorruptState, "no items")
	}
	if len(s.Items) != len(s.Holders) {
		return errors.Wrapf(ErrCorruptState, "%d items but %d holders", len(s.Items), len(s.Holders))
	}
	if s.RoyaltyFee.IsNegative() {
		return errors.Wrap(ErrCorruptState, "negative royalty fee")
	}
	for i, item := range s.Items {
		if item.TokenId != uint64(i) {
			return errors.Wrapf(ErrCorruptState, "item %d has token id %d", i, item.TokenId)
		}
		if s.Holders[i].IsZero() {
			return errors.Wrapf(ErrCorruptState, "token %d has no holder", i)
		}
		if item.IsListed() && item.SellerIdentity().IsZero() {
			return errors.Wrapf(ErrCorruptState, "token %d is listed without a seller", i)
		}
		listed := s.Holders[i] == s.Address
		if item.IsListed() != listed {
			return errors.Wrapf(ErrCorruptState, "token %d is held by %s with seller %q", i, s.Holders[i], item.SellerIdentity())
		}
		if !item.Price.IsPositive() {
			return errors.Wrapf(ErrCorruptState, "token %d has price %s", i, item.Price)
		}
	}
	for i, ev := range s.Events {
		if ev.Seq != uint64(i) {
			return errors.Wrapf(ErrCorruptState, "event %d has sequence %d", i, ev.Seq)
		}
	}

	return nil
}
