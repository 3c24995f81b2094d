package main

import (
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/music-nft-marketplace/internal/config"
	"github.com/ZilDuck/music-nft-marketplace/internal/dic"
	"github.com/ZilDuck/music-nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/service/market"
	"github.com/cockroachdb/errors"
	"github.com/sarulabs/di/v2"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
	"strconv"
)

var (
	container di.Container
	svc       market.Service
)

func main() {
	config.Init("cli")

	var err error
	container, err = dic.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer func() { _ = container.Delete() }()

	svc = dic.GetMarket(container)
	if _, err := svc.Load(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to load marketplace")
	}

	callerFlag := &cli.StringFlag{Name: "as", Usage: "caller identity", Required: true}

	app := &cli.App{
		Name:  "marketplace",
		Usage: "operate the music NFT marketplace ledger",
		Commands: []*cli.Command{
			{
				Name:   "deploy",
				Usage:  "mint and list the configured inventory, paying the deployment fee from the owner",
				Action: deploy,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "payment", Usage: "deployment payment (defaults to the configured fee)"},
				},
			},
			{
				Name:      "fund",
				Usage:     "credit an identity with funds",
				ArgsUsage: "<identity> <amount>",
				Action:    fund,
			},
			{
				Name:      "buy",
				Usage:     "buy a listed item at its asking price",
				ArgsUsage: "<tokenId> <payment>",
				Action:    buy,
				Flags:     []cli.Flag{callerFlag},
			},
			{
				Name:      "resell",
				Usage:     "relist an owned item, paying the royalty fee",
				ArgsUsage: "<tokenId> <price> <royalty>",
				Action:    resell,
				Flags:     []cli.Flag{callerFlag},
			},
			{
				Name:      "royalty",
				Usage:     "update the royalty fee (owner only)",
				ArgsUsage: "<fee>",
				Action:    royalty,
				Flags:     []cli.Flag{callerFlag},
			},
			{
				Name:   "unsold",
				Usage:  "list every item currently for sale",
				Action: unsold,
			},
			{
				Name:      "tokens",
				Usage:     "list the items held by an identity",
				ArgsUsage: "<identity>",
				Action:    tokens,
			},
			{
				Name:      "item",
				Usage:     "show a single item",
				ArgsUsage: "<tokenId>",
				Action:    item,
			},
			{
				Name:   "events",
				Usage:  "print the audit log",
				Action: events,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "offset", Value: 0},
					&cli.IntFlag{Name: "limit", Value: 0, Usage: "0 prints everything"},
				},
			},
			{
				Name:      "balance",
				Usage:     "show the item count and funds of an identity",
				ArgsUsage: "<identity>",
				Action:    balance,
			},
			{
				Name:   "info",
				Usage:  "show the marketplace metadata",
				Action: info,
			},
			{
				Name:   "reindex",
				Usage:  "push the whole audit log into the search index",
				Action: reindex,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "purge", Usage: "drop the index first"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func deploy(c *cli.Context) error {
	params := dic.GetConfig(container).Market.Params()

	payment := params.DeploymentFee
	if c.String("payment") != "" {
		var err error
		if payment, err = amountArg(c.String("payment")); err != nil {
			return err
		}
	}

	info, err := svc.Deploy(params, payment)
	if err != nil {
		return err
	}

	return output(info)
}

func fund(c *cli.Context) error {
	amount, err := amountArg(c.Args().Get(1))
	if err != nil {
		return err
	}

	id := entity.Identity(c.Args().First())
	funds, err := svc.Fund(id, amount)
	if err != nil {
		return err
	}

	zap.L().With(zap.String("identity", id.String()), zap.String("funds", funds.String())).Info("Funded")

	return nil
}

func buy(c *cli.Context) error {
	tokenId, err := tokenIdArg(c.Args().First())
	if err != nil {
		return err
	}
	payment, err := amountArg(c.Args().Get(1))
	if err != nil {
		return err
	}

	ev, err := svc.BuyToken(entity.Identity(c.String("as")), tokenId, payment)
	if err != nil {
		return err
	}

	return output(ev)
}

func resell(c *cli.Context) error {
	tokenId, err := tokenIdArg(c.Args().First())
	if err != nil {
		return err
	}
	price, err := amountArg(c.Args().Get(1))
	if err != nil {
		return err
	}
	royaltyPayment, err := amountArg(c.Args().Get(2))
	if err != nil {
		return err
	}

	ev, err := svc.ResellToken(entity.Identity(c.String("as")), tokenId, price, royaltyPayment)
	if err != nil {
		return err
	}

	return output(ev)
}

func royalty(c *cli.Context) error {
	fee, err := amountArg(c.Args().First())
	if err != nil {
		return err
	}

	if err := svc.UpdateRoyaltyFee(entity.Identity(c.String("as")), fee); err != nil {
		return err
	}

	return info(c)
}

func unsold(c *cli.Context) error {
	items, err := svc.AllUnsoldTokens()
	if err != nil {
		return err
	}

	return output(items)
}

func tokens(c *cli.Context) error {
	items, err := svc.MyTokens(entity.Identity(c.Args().First()))
	if err != nil {
		return err
	}

	return output(items)
}

func item(c *cli.Context) error {
	tokenId, err := tokenIdArg(c.Args().First())
	if err != nil {
		return err
	}

	i, err := svc.MarketItem(tokenId)
	if err != nil {
		return err
	}
	holder, err := svc.HolderOf(tokenId)
	if err != nil {
		return err
	}
	uri, err := svc.TokenURI(tokenId)
	if err != nil {
		return err
	}

	return output(map[string]interface{}{"item": i, "holder": holder, "tokenUri": uri})
}

func events(c *cli.Context) error {
	evs, err := svc.Events(c.Uint64("offset"), c.Int("limit"))
	if err != nil {
		return err
	}

	return output(evs)
}

func balance(c *cli.Context) error {
	id := entity.Identity(c.Args().First())
	count, err := svc.BalanceOf(id)
	if err != nil && !errors.Is(err, market.ErrNotDeployed) {
		return err
	}

	return output(map[string]interface{}{"identity": id, "tokens": count, "funds": svc.Funds(id)})
}

func info(c *cli.Context) error {
	i, err := svc.Info()
	if err != nil {
		return err
	}

	return output(i)
}

func reindex(c *cli.Context) error {
	cfg := dic.GetConfig(container)
	elastic := dic.GetElastic(container)
	index := elastic_search.MarketActionIndex.Get(cfg.Network, cfg.Index)

	if err := elastic.InstallMappings(c.Context, c.Bool("purge")); err != nil {
		return err
	}

	evs, err := svc.Events(0, 0)
	if err != nil {
		return err
	}

	for _, e := range evs {
		elastic_search.AddMarketEvent(elastic, index, cfg.Market.Address, e)
		elastic.BatchPersist()
	}

	if _, err := elastic.Persist(); err != nil {
		return err
	}

	zap.L().With(zap.Int("events", len(evs))).Info("Reindex complete")

	return nil
}

func tokenIdArg(arg string) (uint64, error) {
	tokenId, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, errors.Newf("invalid tokenId %q", arg)
	}

	return tokenId, nil
}

func amountArg(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, errors.Newf("invalid amount %q", arg)
	}

	return amount, nil
}

func output(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, string(b))

	return err
}
