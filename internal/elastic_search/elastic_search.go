package elastic_search

import (
	"context"
	"embed"
	"github.com/ZilDuck/music-nft-marketplace/internal/config"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"path"
	"strings"
	"time"
)

//go:embed mappings/*.json
var mappings embed.FS

type Index interface {
	GetClient() *elastic.Client

	InstallMappings(ctx context.Context, reindex bool) error

	AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction)
	HasRequest(entity entity.Entity) bool
	GetEntitiesByIndex(index string) []entity.Entity
	GetRequests() []Request
	GetRequest(id string) *Request
	ClearRequests()

	BatchPersist() bool
	Persist() (int, error)
}

type index struct {
	client    *elastic.Client
	cache     *cache.Cache
	network   string
	name      string
	refresh   string
	bulkCount int
}

type Request struct {
	Index  string
	Entity entity.Entity
	Action RequestAction
}

type RequestAction string

const (
	MarketSale     RequestAction = "MarketSale"
	MarketListing  RequestAction = "MarketListing"
	MarketTransfer RequestAction = "MarketTransfer"
)

const batchSize = 250

func New(cfg *config.Config) (Index, error) {
	client, err := newClient(cfg.ElasticSearch)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to create client")
		return nil, err
	}

	return newIndex(client, cfg.Network, cfg.Index, cfg.ElasticSearch), nil
}

func newIndex(client *elastic.Client, network, name string, cfg config.ElasticSearchConfig) index {
	return index{
		client:    client,
		cache:     cache.New(5*time.Minute, 10*time.Minute),
		network:   network,
		name:      name,
		refresh:   cfg.Refresh,
		bulkCount: cfg.BulkPersistCount,
	}
}

func newClient(cfg config.ElasticSearchConfig) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(strings.Join(cfg.Hosts, ",")),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(cfg.HealthCheck),
	}

	if cfg.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

// InstallMappings creates every index that has an embedded mapping. With
// reindex set, existing indices are dropped first.
func (i index) InstallMappings(ctx context.Context, reindex bool) error {
	zap.L().Info("ElasticSearch: Install Mappings")

	files, err := mappings.ReadDir("mappings")
	if err != nil {
		return err
	}

	for _, f := range files {
		b, err := mappings.ReadFile(path.Join("mappings", f.Name()))
		if err != nil {
			return err
		}

		name := Indices(strings.TrimSuffix(f.Name(), path.Ext(f.Name()))).Get(i.network, i.name)
		if err = i.createIndex(ctx, name, b, reindex); err != nil {
			return errors.Wrapf(err, "create index %s", name)
		}
	}

	return nil
}

func (i index) createIndex(ctx context.Context, index string, mapping []byte, reindex bool) error {
	exists, err := i.client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if exists && reindex {
		zap.S().Infof("ElasticSearch: Deleting index %s", index)
		if _, err = i.client.DeleteIndex(index).Do(ctx); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		createIndex, err := i.client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", index)
		}
	}

	return nil
}

func (i index) AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticSearch: AddIndexRequest")

	i.cache.Set(entity.Slug(), Request{index, entity, reqAction}, cache.DefaultExpiration)
}

func (i index) HasRequest(entity entity.Entity) bool {
	_, found := i.cache.Get(entity.Slug())

	return found
}

func (i index) GetEntitiesByIndex(index string) []entity.Entity {
	entities := make([]entity.Entity, 0)
	for _, req := range i.GetRequests() {
		if req.Index == index {
			entities = append(entities, req.Entity)
		}
	}

	return entities
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) GetRequest(id string) *Request {
	if item, found := i.cache.Get(id); found {
		req := item.(Request)
		return &req
	}

	return nil
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) BatchPersist() bool {
	if i.cache.ItemCount() < batchSize {
		return false
	}

	start := time.Now()
	actions, err := i.Persist()
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Batch persist failed")
		return false
	}

	zap.L().With(
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("actions", actions),
	).Info("ElasticSearch: Persisting data")

	return true
}

// Persist bulk-indexes every buffered request. Requests that fail stay in the
// buffer for the next call.
func (i index) Persist() (int, error) {
	persisted := 0
	bulk := i.client.Bulk()
	for _, r := range i.GetRequests() {
		bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))

		if i.bulkCount > 0 && bulk.NumberOfActions() >= i.bulkCount {
			n, err := i.persist(bulk)
			persisted += n
			if err != nil {
				return persisted, err
			}
			bulk = i.client.Bulk()
		}
	}

	if bulk.NumberOfActions() != 0 {
		n, err := i.persist(bulk)
		persisted += n
		if err != nil {
			return persisted, err
		}
	}

	return persisted, nil
}

func (i index) persist(bulk *elastic.BulkService) (int, error) {
	zap.S().Debugf("ElasticSearch: Persisting %d actions", bulk.NumberOfActions())

	if i.refresh != "" {
		bulk = bulk.Refresh(i.refresh)
	}

	response, err := bulk.Do(context.Background())
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to persist requests")
		return 0, err
	}

	failed := make(map[string]bool)
	for _, f := range response.Failed() {
		zap.L().With(
			zap.Any("error", f.Error),
			zap.String("index", f.Index),
			zap.String("id", f.Id),
		).Error("ElasticSearch: Failed to persist request")
		failed[f.Id] = true
	}

	persisted := 0
	for _, item := range response.Items {
		for _, result := range item {
			if !failed[result.Id] {
				i.cache.Delete(result.Id)
				persisted++
			}
		}
	}

	if len(failed) != 0 {
		return persisted, errors.Newf("%d of %d requests failed", len(failed), len(response.Items))
	}

	return persisted, nil
}
