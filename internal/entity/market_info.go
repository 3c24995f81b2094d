package entity

import "github.com/shopspring/decimal"

type MarketInfo struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	BaseURI     string          `json:"baseUri"`
	Address     Identity        `json:"address"`
	Owner       Identity        `json:"owner"`
	Artist      Identity        `json:"artist"`
	RoyaltyFee  decimal.Decimal `json:"royaltyFee"`
	TotalSupply uint64          `json:"totalSupply"`
	Pool        decimal.Decimal `json:"pool"`
}
