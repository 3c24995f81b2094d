package elastic_search

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ZilDuck/music-nft-marketplace/internal/config"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu      sync.Mutex
	indexed map[string]string
	created []string
	reject  map[string]bool
}

func newFakeCluster(t *testing.T) (*fakeCluster, *httptest.Server) {
	f := &fakeCluster{indexed: map[string]string{}, reject: map[string]bool{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	return f, srv
}

func (f *fakeCluster) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/_bulk":
		items := make([]map[string]interface{}, 0)
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var action map[string]map[string]string
			if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
				continue
			}
			meta, ok := action["index"]
			if !ok {
				continue
			}
			scanner.Scan()

			result := map[string]interface{}{"_index": meta["_index"], "_id": meta["_id"], "status": 201}
			if f.reject[meta["_id"]] {
				result["status"] = 400
				result["error"] = map[string]string{"type": "mapper_parsing_exception", "reason": "bad document"}
			} else {
				f.indexed[meta["_id"]] = scanner.Text()
			}
			items = append(items, map[string]interface{}{"index": result})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"took": 1, "errors": len(f.reject) > 0, "items": items})

	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusNotFound)

	case r.Method == http.MethodPut:
		f.created = append(f.created, strings.TrimPrefix(r.URL.Path, "/"))
		_, _ = w.Write([]byte(`{"acknowledged":true,"shards_acknowledged":true}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestIndex(t *testing.T, url string) index {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	require.NoError(t, err)

	return newIndex(client, "localnet", "saxfi", config.ElasticSearchConfig{BulkPersistCount: 2})
}

func action(tokenId uint64, eventId string, actionType entity.ActionType) entity.NftAction {
	return entity.NftAction{
		Contract: "0xmarketplace",
		TokenId:  tokenId,
		EventID:  eventId,
		Action:   actionType,
		From:     "0xmarketplace",
		To:       "0xbuyer",
		Cost:     "2",
		Fungible: entity.Fungible,
	}
}

func TestIndices_Get(t *testing.T) {
	assert.Equal(t, "localnet.saxfi.marketaction", MarketActionIndex.Get("localnet", "saxfi"))
}

func TestIndex_RequestBuffer(t *testing.T) {
	i := newIndex(nil, "localnet", "saxfi", config.ElasticSearchConfig{})
	name := MarketActionIndex.Get("localnet", "saxfi")

	sale := action(1, "e1", entity.MarketplaceSaleAction)
	transfer := action(1, "e1", entity.TransferAction)

	i.AddIndexRequest(name, sale, MarketSale)
	i.AddIndexRequest(name, transfer, MarketTransfer)
	i.AddIndexRequest(name, sale, MarketSale)

	assert.True(t, i.HasRequest(sale))
	assert.Len(t, i.GetRequests(), 2)
	assert.Len(t, i.GetEntitiesByIndex(name), 2)
	assert.Empty(t, i.GetEntitiesByIndex("other"))

	req := i.GetRequest(transfer.Slug())
	require.NotNil(t, req)
	assert.Equal(t, MarketTransfer, req.Action)
	assert.Nil(t, i.GetRequest("missing"))

	assert.False(t, i.BatchPersist())

	i.ClearRequests()
	assert.Empty(t, i.GetRequests())
}

func TestIndex_Persist(t *testing.T) {
	cluster, srv := newFakeCluster(t)
	i := newTestIndex(t, srv.URL)
	name := MarketActionIndex.Get("localnet", "saxfi")

	docs := []entity.NftAction{
		action(0, "e1", entity.MarketplaceSaleAction),
		action(0, "e1", entity.TransferAction),
		action(3, "e2", entity.MarketplaceListingAction),
	}
	for _, doc := range docs {
		i.AddIndexRequest(name, doc, MarketSale)
	}

	persisted, err := i.Persist()
	require.NoError(t, err)
	assert.Equal(t, 3, persisted)
	assert.Empty(t, i.GetRequests())

	for _, doc := range docs {
		body, ok := cluster.indexed[doc.Slug()]
		require.True(t, ok)
		assert.Contains(t, body, `"action":"`+string(doc.Action)+`"`)
	}
}

func TestIndex_PersistKeepsFailedRequests(t *testing.T) {
	cluster, srv := newFakeCluster(t)
	i := newTestIndex(t, srv.URL)
	name := MarketActionIndex.Get("localnet", "saxfi")

	good := action(0, "e1", entity.MarketplaceSaleAction)
	bad := action(0, "e1", entity.TransferAction)
	cluster.reject[bad.Slug()] = true

	i.AddIndexRequest(name, good, MarketSale)
	i.AddIndexRequest(name, bad, MarketTransfer)

	persisted, err := i.Persist()
	assert.Error(t, err)
	assert.Equal(t, 1, persisted)
	assert.False(t, i.HasRequest(good))
	assert.True(t, i.HasRequest(bad))
}

func TestIndex_InstallMappings(t *testing.T) {
	cluster, srv := newFakeCluster(t)
	i := newTestIndex(t, srv.URL)

	require.NoError(t, i.InstallMappings(context.Background(), false))
	assert.Equal(t, []string{"localnet.saxfi.marketaction"}, cluster.created)
}

func TestAddMarketEvent(t *testing.T) {
	i := newIndex(nil, "localnet", "saxfi", config.ElasticSearchConfig{})
	name := MarketActionIndex.Get("localnet", "saxfi")

	e := entity.MarketEvent{ID: "e1", Type: entity.MarketItemBoughtEvent, TokenId: 4, Seller: "0xdeployer", Buyer: "0xfan"}
	assert.Equal(t, 2, AddMarketEvent(i, name, "0xmarketplace", e))

	actions := map[RequestAction]bool{}
	for _, req := range i.GetRequests() {
		actions[req.Action] = true
		assert.Equal(t, name, req.Index)
	}
	assert.Equal(t, map[RequestAction]bool{MarketSale: true, MarketTransfer: true}, actions)

	assert.Equal(t, 0, AddMarketEvent(i, name, "0xmarketplace", entity.MarketEvent{Type: "Unknown"}))
}
