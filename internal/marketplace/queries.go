package marketplace

import (
	"fmt"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/shopspring/decimal"
)

// AllUnsoldTokens returns every listed item in token order.
func (m *Marketplace) AllUnsoldTokens() []entity.MarketItem {
	items := make([]entity.MarketItem, 0)
	for _, item := range m.items {
		if item.IsListed() {
			items = append(items, item)
		}
	}

	return items
}

// MyTokens returns the items held by caller in token order. Items the caller
// has relisted are held by the marketplace and so are not included.
func (m *Marketplace) MyTokens(caller entity.Identity) []entity.MarketItem {
	items := make([]entity.MarketItem, 0)
	for _, item := range m.items {
		if holder, err := m.registry.HolderOf(item.TokenId); err == nil && holder == caller {
			items = append(items, item)
		}
	}

	return items
}

func (m *Marketplace) MarketItem(tokenId uint64) (entity.MarketItem, error) {
	return m.item(tokenId)
}

func (m *Marketplace) HolderOf(tokenId uint64) (entity.Identity, error) {
	return m.registry.HolderOf(tokenId)
}

func (m *Marketplace) BalanceOf(holder entity.Identity) uint64 {
	return m.registry.BalanceOf(holder)
}

func (m *Marketplace) TokenURI(tokenId uint64) (string, error) {
	if _, err := m.item(tokenId); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%d", m.baseURI, tokenId), nil
}

// Events returns a copy of the audit log, oldest first.
func (m *Marketplace) Events() []entity.MarketEvent {
	events := make([]entity.MarketEvent, len(m.events))
	copy(events, m.events)

	return events
}

func (m *Marketplace) Name() string                { return m.name }
func (m *Marketplace) Symbol() string              { return m.symbol }
func (m *Marketplace) BaseURI() string             { return m.baseURI }
func (m *Marketplace) Address() entity.Identity    { return m.address }
func (m *Marketplace) Owner() entity.Identity      { return m.owner }
func (m *Marketplace) Artist() entity.Identity     { return m.artist }
func (m *Marketplace) RoyaltyFee() decimal.Decimal { return m.royaltyFee }
func (m *Marketplace) TotalSupply() uint64         { return m.registry.Len() }

// PoolBalance is the value held by the marketplace itself, which funds
// royalty payouts.
func (m *Marketplace) PoolBalance() decimal.Decimal {
	return m.settler.BalanceOf(m.address)
}

func (m *Marketplace) Info() entity.MarketInfo {
	return entity.MarketInfo{
		Name:        m.name,
		Symbol:      m.symbol,
		BaseURI:     m.baseURI,
		Address:     m.address,
		Owner:       m.owner,
		Artist:      m.artist,
		RoyaltyFee:  m.royaltyFee,
		TotalSupply: m.registry.Len(),
		Pool:        m.PoolBalance(),
	}
}
