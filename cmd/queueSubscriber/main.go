package main

import (
	"context"
	"encoding/json"
	"github.com/ZilDuck/music-nft-marketplace/internal/config"
	"github.com/ZilDuck/music-nft-marketplace/internal/dic"
	"github.com/ZilDuck/music-nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/messenger"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.Init("queueSubscriber")

	container, err := dic.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer func() { _ = container.Delete() }()

	cfg := dic.GetConfig(container)
	elastic := dic.GetElastic(container)
	index := elastic_search.MarketActionIndex.Get(cfg.Network, cfg.Index)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := elastic.InstallMappings(ctx, false); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to install mappings")
	}

	zap.L().Info("Subscribing to market events")
	err = dic.GetMessenger(container).ConsumeMessages(ctx, messenger.MarketEvents, func(msg []byte) {
		var e entity.MarketEvent
		if err := json.Unmarshal(msg, &e); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to read message")
			return
		}

		actions := elastic_search.AddMarketEvent(elastic, index, cfg.Market.Address, e)
		if _, err := elastic.Persist(); err != nil {
			zap.L().With(zap.Error(err), zap.Uint64("seq", e.Seq)).Error("Failed to index market event")
			return
		}

		zap.L().With(
			zap.Uint64("seq", e.Seq),
			zap.Uint64("tokenId", e.TokenId),
			zap.String("type", string(e.Type)),
			zap.Int("actions", actions),
		).Info("Indexed market event")
	})
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Queue subscription ended")
	}
}
