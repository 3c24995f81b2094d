package dic

import (
	"context"
	"github.com/ZilDuck/music-nft-marketplace/internal/api"
	"github.com/ZilDuck/music-nft-marketplace/internal/config"
	"github.com/ZilDuck/music-nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/music-nft-marketplace/internal/messenger"
	"github.com/ZilDuck/music-nft-marketplace/internal/service/market"
	"github.com/ZilDuck/music-nft-marketplace/internal/store"
	"github.com/ZilDuck/music-nft-marketplace/internal/wallet"
	"github.com/patrickmn/go-cache"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
	"time"
)

const (
	ConfigDef    = "config"
	StoreDef     = "store"
	CacheDef     = "cache"
	BookDef      = "book"
	MarketDef    = "market"
	MessengerDef = "messenger"
	ElasticDef   = "elastic"
	ApiDef       = "api"
)

type storeHandle struct {
	*store.BadgerStore
	cancel context.CancelFunc
}

var Definitions = []di.Def{
	{
		Name: ConfigDef,
		Build: func(ctn di.Container) (interface{}, error) {
			return config.Load()
		},
	},
	{
		Name: StoreDef,
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get(ConfigDef).(*config.Config)
			if cfg.StorePath == "" {
				return store.OpenInMemory()
			}

			ctx, cancel := context.WithCancel(context.Background())
			bs, err := store.OpenBadger(ctx, cfg.StorePath)
			if err != nil {
				cancel()
				zap.L().With(zap.Error(err), zap.String("path", cfg.StorePath)).Error("Failed to open store")
				return nil, err
			}

			return &storeHandle{bs, cancel}, nil
		},
		Close: func(obj interface{}) error {
			if h, ok := obj.(*storeHandle); ok {
				h.cancel()
				return h.Close()
			}
			return obj.(*store.BadgerStore).Close()
		},
	},
	{
		Name: CacheDef,
		Build: func(ctn di.Container) (interface{}, error) {
			return cache.New(5*time.Minute, 10*time.Minute), nil
		},
	},
	{
		Name: BookDef,
		Build: func(ctn di.Container) (interface{}, error) {
			return wallet.NewBook(), nil
		},
	},
	{
		Name: MarketDef,
		Build: func(ctn di.Container) (interface{}, error) {
			return market.NewService(GetStore(ctn), ctn.Get(BookDef).(*wallet.Book), ctn.Get(CacheDef).(*cache.Cache)), nil
		},
	},
	{
		Name: MessengerDef,
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get(ConfigDef).(*config.Config)
			return messenger.NewMessenger(cfg.AmqpUri, cfg.Index), nil
		},
		Close: func(obj interface{}) error {
			return obj.(messenger.MessageService).Close()
		},
	},
	{
		Name: ElasticDef,
		Build: func(ctn di.Container) (interface{}, error) {
			return elastic_search.New(ctn.Get(ConfigDef).(*config.Config))
		},
	},
	{
		Name: ApiDef,
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := ctn.Get(ConfigDef).(*config.Config)
			return api.NewServer(GetMarket(ctn), cfg.IpfsGateway, cfg.Market.Faucet), nil
		},
	},
}

func NewContainer() (ctn di.Container, err error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return ctn, err
	}

	if err = builder.Add(Definitions...); err != nil {
		return ctn, err
	}

	return builder.Build(), nil
}

func GetConfig(ctn di.Container) *config.Config {
	return ctn.Get(ConfigDef).(*config.Config)
}

func GetStore(ctn di.Container) *store.BadgerStore {
	switch s := ctn.Get(StoreDef).(type) {
	case *storeHandle:
		return s.BadgerStore
	default:
		return s.(*store.BadgerStore)
	}
}

func GetMarket(ctn di.Container) market.Service {
	return ctn.Get(MarketDef).(market.Service)
}

func GetMessenger(ctn di.Container) messenger.MessageService {
	return ctn.Get(MessengerDef).(messenger.MessageService)
}

func GetElastic(ctn di.Container) elastic_search.Index {
	return ctn.Get(ElasticDef).(elastic_search.Index)
}

func GetApi(ctn di.Container) api.Server {
	return ctn.Get(ApiDef).(api.Server)
}
