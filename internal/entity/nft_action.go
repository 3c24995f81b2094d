package entity

import (
	"fmt"
	"github.com/gosimple/slug"
)

type Entity interface {
	Slug() string
}

// NftAction is the search document written for every ownership or listing
// change on the marketplace.
type NftAction struct {
	Contract    string     `json:"contract"`
	TokenId     uint64     `json:"tokenId"`
	EventID     string     `json:"eventId"`
	Seq         uint64     `json:"seq"`
	Action      ActionType `json:"action"`
	From        string     `json:"from"`
	To          string     `json:"to"`
	Marketplace string     `json:"marketplace"`
	Cost        string     `json:"cost"`
	Royalty     string     `json:"royalty"`
	Fungible    string     `json:"fungible"`
}

type ActionType string

const (
	MintAction               ActionType = "mint"
	TransferAction           ActionType = "transfer"
	MarketplaceSaleAction    ActionType = "sale"
	MarketplaceListingAction ActionType = "listing"
)

func (n NftAction) Slug() string {
	return CreateNftActionSlug(n.TokenId, n.Contract, n.EventID, string(n.Action))
}

// CreateNftActionSlug is the search document id of an action. The event id
// keeps it unique, so replaying the event log overwrites rather than
// duplicates documents.
func CreateNftActionSlug(tokenId uint64, contract, eventId, action string) string {
	return slug.Make(fmt.Sprintf("nftaction-%s-%d-%s-%s", contract, tokenId, action, eventId))
}
