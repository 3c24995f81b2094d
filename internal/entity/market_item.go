package entity

import (
	"github.com/shopspring/decimal"
)

type MarketItem struct {
	TokenId uint64          `json:"tokenId"`
	Seller  *Identity       `json:"seller"`
	Price   decimal.Decimal `json:"price"`
}

func NewListedItem(tokenId uint64, seller Identity, price decimal.Decimal) MarketItem {
	return MarketItem{
		TokenId: tokenId,
		Seller:  seller.Ptr(),
		Price:   price,
	}
}

// IsListed reports whether the item is for sale. A listed item is always held
// by the marketplace.
func (m MarketItem) IsListed() bool {
	return m.Seller != nil
}

func (m MarketItem) SellerIdentity() Identity {
	if m.Seller == nil {
		return NoIdentity
	}
	return *m.Seller
}
