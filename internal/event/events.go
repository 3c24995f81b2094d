package event

type Type string

const (
	MarketDeployedEvent     Type = "MarketDeployedEvent"
	MarketItemBoughtEvent   Type = "MarketItemBoughtEvent"
	MarketItemRelistedEvent Type = "MarketItemRelistedEvent"
	RoyaltyFeeUpdatedEvent  Type = "RoyaltyFeeUpdatedEvent"
)
