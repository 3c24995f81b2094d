package entity

import (
	"github.com/shopspring/decimal"
	"time"
)

type EventType string

const (
	MarketItemBoughtEvent   EventType = "MarketItemBought"
	MarketItemRelistedEvent EventType = "MarketItemRelisted"
)

// MarketEvent is one entry of the append-only audit log. For a purchase Seller
// is the previous seller and Royalty the amount paid to the artist; for a
// relisting Seller is the new seller, Price the asking price and Royalty the
// amount collected into the pool.
type MarketEvent struct {
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	Type      EventType       `json:"type"`
	TokenId   uint64          `json:"tokenId"`
	Seller    Identity        `json:"seller"`
	Buyer     Identity        `json:"buyer,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Royalty   decimal.Decimal `json:"royalty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (e MarketEvent) IsPurchase() bool {
	return e.Type == MarketItemBoughtEvent
}

func (e MarketEvent) IsRelisting() bool {
	return e.Type == MarketItemRelistedEvent
}
