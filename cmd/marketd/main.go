package main

import (
	"context"
	"github.com/ZilDuck/music-nft-marketplace/internal/config"
	"github.com/ZilDuck/music-nft-marketplace/internal/dic"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/event"
	"github.com/ZilDuck/music-nft-marketplace/internal/messenger"
	"github.com/ZilDuck/music-nft-marketplace/internal/service/market"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var container di.Container

func main() {
	config.Init("marketd")

	var err error
	container, err = dic.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer func() { _ = container.Delete() }()

	cfg := dic.GetConfig(container)
	svc := dic.GetMarket(container)

	if err := load(cfg, svc); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to load marketplace")
	}

	if cfg.AmqpUri != "" {
		publisher := dic.GetMessenger(container)
		event.AddListener(publish(publisher), event.MarketItemBoughtEvent, event.MarketItemRelistedEvent)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           dic.GetApi(container).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zap.L().With(zap.String("port", cfg.HttpPort)).Info("Marketplace Started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().With(zap.Error(err)).Error("Failed to start marketplace")
			stop()
		}
	}()

	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to stop marketplace")
	}
	event.RemoveAllListeners()
	zap.L().Info("Marketplace Stopped")
}

func load(cfg *config.Config, svc market.Service) error {
	loaded, err := svc.Load()
	if err != nil || loaded || !cfg.Market.AutoDeploy {
		return err
	}

	params := cfg.Market.Params()
	if cfg.Market.Faucet {
		if _, err := svc.Fund(params.Owner, params.DeploymentFee); err != nil {
			return err
		}
	}

	info, err := svc.Deploy(params, params.DeploymentFee)
	if err != nil {
		return err
	}

	zap.L().With(
		zap.String("address", info.Address.String()),
		zap.Uint64("items", info.TotalSupply),
		zap.String("royaltyFee", info.RoyaltyFee.String()),
	).Info("Marketplace auto-deployed")

	return nil
}

func publish(m messenger.MessageService) func(msg interface{}) {
	return func(msg interface{}) {
		e, ok := msg.(entity.MarketEvent)
		if !ok {
			return
		}
		if err := m.PublishMarketEvent(e); err != nil {
			zap.L().With(zap.Error(err), zap.Uint64("seq", e.Seq)).Error("Failed to publish market event")
		}
	}
}
