package elastic_search

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/factory"
)

// AddMarketEvent buffers the search documents describing e.
func AddMarketEvent(idx Index, index string, marketplace entity.Identity, e entity.MarketEvent) int {
	actions := factory.CreateActions(e, marketplace)
	for _, action := range actions {
		idx.AddIndexRequest(index, action, requestAction(action.Action))
	}

	return len(actions)
}

func requestAction(action entity.ActionType) RequestAction {
	switch action {
	case entity.MarketplaceSaleAction:
		return MarketSale
	case entity.MarketplaceListingAction:
		return MarketListing
	}

	return MarketTransfer
}
