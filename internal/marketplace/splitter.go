package marketplace

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/wallet"
	"github.com/shopspring/decimal"
)

// PaymentSplitter builds the transfers that settle a purchase. The buyer's
// payment passes through the marketplace to the seller untouched; the royalty
// comes out of the marketplace's own pool.
type PaymentSplitter struct {
	market entity.Identity
	artist entity.Identity
}

func NewPaymentSplitter(market, artist entity.Identity) PaymentSplitter {
	return PaymentSplitter{market, artist}
}

func (s PaymentSplitter) Split(buyer, seller entity.Identity, price, royalty decimal.Decimal) []wallet.Transfer {
	transfers := []wallet.Transfer{
		{From: buyer, To: s.market, Amount: price},
		{From: s.market, To: seller, Amount: price},
	}
	if royalty.IsPositive() {
		transfers = append(transfers, wallet.Transfer{From: s.market, To: s.artist, Amount: royalty})
	}

	return transfers
}
