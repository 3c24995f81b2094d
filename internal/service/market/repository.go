package market

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/marketplace"
	"github.com/shopspring/decimal"
)

type Repository interface {
	WriteBalances(balances map[entity.Identity]decimal.Decimal) error
	WriteMarket(state marketplace.State, balances map[entity.Identity]decimal.Decimal) error
	ReadMarket() (*marketplace.State, map[entity.Identity]decimal.Decimal, error)
	ListEvents(offset uint64, limit int) ([]entity.MarketEvent, error)
}
