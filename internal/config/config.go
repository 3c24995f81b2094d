package config

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/log"
	"github.com/ZilDuck/music-nft-marketplace/internal/marketplace"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"math/big"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env       string
	Network   string
	Index     string
	Debug     bool
	LogPath   string
	SentryDsn string

	StorePath string
	HttpPort  string
	AmqpUri   string

	IpfsGateway string

	Market        MarketConfig
	ElasticSearch ElasticSearchConfig
}

type MarketConfig struct {
	Name          string
	Symbol        string
	BaseURI       string
	Address       entity.Identity
	Owner         entity.Identity
	Artist        entity.Identity
	RoyaltyFee    decimal.Decimal
	Prices        []decimal.Decimal
	DeploymentFee decimal.Decimal
	AutoDeploy    bool
	Faucet        bool
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	Refresh          string
	BulkPersistCount int
}

var defaultPrices = []string{"1", "2", "3", "4", "5", "6", "7", "8"}

var ErrInvalidAmount = errors.New("config: invalid amount")

func Init(app string) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		zap.L().With(zap.Error(err)).Fatal("Unable to init config")
	}

	initLogger(app)
}

func initLogger(app string) {
	log.NewLogger(log.Options{
		Dir:       getString("LOG_PATH", "./var/log"),
		App:       app,
		Network:   getString("NETWORK", "localnet"),
		Debug:     getBool("DEBUG", false),
		SentryDsn: getString("SENTRY_DSN", ""),
	})

	if _, err := Load(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Unable to init config")
	}
}

// Get loads the configuration and exits when a market amount cannot be parsed.
func Get() *Config {
	c, err := Load()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Unable to load config")
	}

	return c
}

// Load reads the configuration from the environment. An amount that does not
// parse is ErrInvalidAmount, never the default.
func Load() (*Config, error) {
	royaltyFee, err := getDecimal("MARKET_ROYALTY_FEE", decimal.RequireFromString("0.01"))
	if err != nil {
		return nil, err
	}
	prices, err := getDecimals("MARKET_PRICES", defaultPrices, ",")
	if err != nil {
		return nil, err
	}
	deploymentFee, err := getDecimal("MARKET_DEPLOYMENT_FEE", royaltyFee.Mul(decimal.NewFromInt(int64(len(prices)))))
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:       getString("ENV", ""),
		Network:   getString("NETWORK", "localnet"),
		Index:     getString("INDEX_NAME", "saxfi"),
		Debug:     getBool("DEBUG", false),
		LogPath:   getString("LOG_PATH", "./var/log"),
		SentryDsn: getString("SENTRY_DSN", ""),
		StorePath: getString("STORE_PATH", "./var/data"),
		HttpPort:  getString("HTTP_PORT", "8080"),
		AmqpUri:   getString("AMQP_URI", ""),

		IpfsGateway: getString("IPFS_GATEWAY", "https://ipfs.io/ipfs/"),
		Market: MarketConfig{
			Name:          getString("MARKET_NAME", entity.DefaultName),
			Symbol:        getString("MARKET_SYMBOL", entity.DefaultSymbol),
			BaseURI:       getString("MARKET_BASE_URI", entity.DefaultBaseURI),
			Address:       entity.Identity(getString("MARKET_ADDRESS", "0xmarketplace")),
			Owner:         entity.Identity(getString("MARKET_OWNER", "0xdeployer")),
			Artist:        entity.Identity(getString("MARKET_ARTIST", "0xartist")),
			RoyaltyFee:    royaltyFee,
			Prices:        prices,
			DeploymentFee: deploymentFee,
			AutoDeploy:    getBool("MARKET_AUTO_DEPLOY", false),
			Faucet:        getBool("MARKET_FAUCET", false),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", false),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "false"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
		},
	}, nil
}

func (c MarketConfig) Params() marketplace.Params {
	return marketplace.Params{
		Name:          c.Name,
		Symbol:        c.Symbol,
		BaseURI:       c.BaseURI,
		Address:       c.Address,
		Owner:         c.Owner,
		Artist:        c.Artist,
		RoyaltyFee:    c.RoyaltyFee,
		Prices:        c.Prices,
		DeploymentFee: c.DeploymentFee,
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}

func getDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	valStr := strings.TrimSpace(getString(key, ""))
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := decimal.NewFromString(valStr)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidAmount, "%s=%q", key, valStr)
	}

	return val, nil
}

func getDecimals(key string, defaultVal []string, sep string) ([]decimal.Decimal, error) {
	values := make([]decimal.Decimal, 0)
	for i, valStr := range getSlice(key, defaultVal, sep) {
		val, err := decimal.NewFromString(strings.TrimSpace(valStr))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidAmount, "%s[%d]=%q", key, i, valStr)
		}
		values = append(values, val)
	}

	return values, nil
}
