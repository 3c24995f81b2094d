package factory

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
)

// CreateActions turns a market event into the search documents describing it:
// the sale or listing itself followed by the ownership transfer it caused.
func CreateActions(e entity.MarketEvent, marketplace entity.Identity) []entity.NftAction {
	switch e.Type {
	case entity.MarketItemBoughtEvent:
		return []entity.NftAction{
			CreateSaleAction(e, marketplace),
			CreateTransferAction(e, marketplace, marketplace, e.Buyer),
		}
	case entity.MarketItemRelistedEvent:
		return []entity.NftAction{
			CreateListingAction(e, marketplace),
			CreateTransferAction(e, marketplace, e.Seller, marketplace),
		}
	}

	return nil
}

func CreateSaleAction(e entity.MarketEvent, marketplace entity.Identity) entity.NftAction {
	return entity.NftAction{
		Contract:    marketplace.String(),
		TokenId:     e.TokenId,
		EventID:     e.ID,
		Seq:         e.Seq,
		Action:      entity.MarketplaceSaleAction,
		From:        e.Seller.String(),
		To:          e.Buyer.String(),
		Marketplace: string(entity.SaxfiMarketplace),
		Cost:        e.Price.String(),
		Royalty:     e.Royalty.String(),
		Fungible:    entity.Fungible,
	}
}

func CreateListingAction(e entity.MarketEvent, marketplace entity.Identity) entity.NftAction {
	return entity.NftAction{
		Contract:    marketplace.String(),
		TokenId:     e.TokenId,
		EventID:     e.ID,
		Seq:         e.Seq,
		Action:      entity.MarketplaceListingAction,
		From:        e.Seller.String(),
		To:          marketplace.String(),
		Marketplace: string(entity.SaxfiMarketplace),
		Cost:        e.Price.String(),
		Royalty:     e.Royalty.String(),
		Fungible:    entity.Fungible,
	}
}

func CreateTransferAction(e entity.MarketEvent, marketplace, from, to entity.Identity) entity.NftAction {
	return entity.NftAction{
		Contract: marketplace.String(),
		TokenId:  e.TokenId,
		EventID:  e.ID,
		Seq:      e.Seq,
		Action:   entity.TransferAction,
		From:     from.String(),
		To:       to.String(),
	}
}
