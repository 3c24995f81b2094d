package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/marketplace"
	"github.com/ZilDuck/music-nft-marketplace/internal/service/market"
	"github.com/ZilDuck/music-nft-marketplace/internal/store"
	"github.com/ZilDuck/music-nft-marketplace/internal/wallet"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eth(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestServer(t *testing.T, deploy bool) (http.Handler, market.Service) {
	bs, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	svc := market.NewService(bs, wallet.NewBook(), cache.New(time.Minute, time.Minute))

	if deploy {
		for _, id := range []entity.Identity{"0xdeployer", "0xbuyer"} {
			_, err := svc.Fund(id, eth("10"))
			require.NoError(t, err)
		}
		fee := eth("0.01")
		prices := []decimal.Decimal{eth("1"), eth("2")}
		_, err = svc.Deploy(marketplace.Params{
			Name:          entity.DefaultName,
			Symbol:        entity.DefaultSymbol,
			BaseURI:       "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/",
			Address:       "0xmarketplace",
			Owner:         "0xdeployer",
			Artist:        "0xartist",
			RoyaltyFee:    fee,
			Prices:        prices,
			DeploymentFee: marketplace.DefaultDeploymentFee(fee, len(prices)),
		}, eth("0.02"))
		require.NoError(t, err)
	}

	return NewServer(svc, "https://ipfs.io/ipfs/", true).Router(), svc
}

func do(t *testing.T, h http.Handler, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		req.Header.Set(IdentityHeader, caller)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestServer_Health(t *testing.T) {
	h, _ := newTestServer(t, false)

	rec := do(t, h, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deployed":false}`, rec.Body.String())
}

func TestServer_NotDeployed(t *testing.T) {
	h, _ := newTestServer(t, false)

	rec := do(t, h, "GET", "/market", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	decode(t, rec, &resp)
	assert.Equal(t, entity.ErrStateConflict.Error(), resp.Category)
}

func TestServer_Market(t *testing.T) {
	h, _ := newTestServer(t, true)

	rec := do(t, h, "GET", "/market", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info entity.MarketInfo
	decode(t, rec, &info)
	assert.Equal(t, "SAXFi", info.Name)
	assert.Equal(t, uint64(2), info.TotalSupply)
	assert.True(t, eth("0.02").Equal(info.Pool))
}

func TestServer_BuyFlow(t *testing.T) {
	h, _ := newTestServer(t, true)

	rec := do(t, h, "GET", "/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []entity.MarketItem
	decode(t, rec, &items)
	assert.Len(t, items, 2)

	rec = do(t, h, "POST", "/items/1/buy", "0xbuyer", buyRequest{Payment: eth("2")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ev entity.MarketEvent
	decode(t, rec, &ev)
	assert.Equal(t, entity.MarketItemBoughtEvent, ev.Type)
	assert.Equal(t, entity.Identity("0xbuyer"), ev.Buyer)

	rec = do(t, h, "GET", "/items/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var item itemResponse
	decode(t, rec, &item)
	assert.False(t, item.IsListed())
	assert.Equal(t, entity.Identity("0xbuyer"), item.Holder)
	assert.Equal(t, "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/1", item.TokenURI)
	assert.Equal(t, "https://ipfs.io/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/1", item.GatewayURI)

	rec = do(t, h, "GET", "/accounts/0xbuyer/tokens", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(1), items[0].TokenId)

	rec = do(t, h, "GET", "/tokens", "0xbuyer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(1), items[0].TokenId)

	rec = do(t, h, "GET", "/tokens", "0xdeployer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	assert.Empty(t, items)

	rec = do(t, h, "GET", "/accounts/0xbuyer/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance balanceResponse
	decode(t, rec, &balance)
	assert.Equal(t, uint64(1), balance.Tokens)
	assert.True(t, eth("8").Equal(balance.Funds))

	rec = do(t, h, "POST", "/items/1/resell", "0xbuyer", resellRequest{Price: eth("3"), Royalty: eth("0.01")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, "GET", "/events?offset=0&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []entity.MarketEvent
	decode(t, rec, &events)
	require.Len(t, events, 2)
	assert.Equal(t, entity.MarketItemRelistedEvent, events[1].Type)
}

func TestServer_ErrorStatuses(t *testing.T) {
	h, _ := newTestServer(t, true)

	testCases := map[string]struct {
		method string
		path   string
		caller string
		body   interface{}
		status int
	}{
		"missing caller":       {"POST", "/items/0/buy", "", buyRequest{Payment: eth("1")}, http.StatusUnauthorized},
		"bad token id":         {"POST", "/items/abc/buy", "0xbuyer", buyRequest{Payment: eth("1")}, http.StatusBadRequest},
		"unknown item":         {"POST", "/items/9/buy", "0xbuyer", buyRequest{Payment: eth("1")}, http.StatusNotFound},
		"wrong payment":        {"POST", "/items/0/buy", "0xbuyer", buyRequest{Payment: eth("0.5")}, http.StatusPaymentRequired},
		"not the holder":       {"POST", "/items/0/resell", "0xbuyer", resellRequest{Price: eth("2"), Royalty: eth("0.01")}, http.StatusForbidden},
		"not the owner":        {"PUT", "/royalty-fee", "0xbuyer", royaltyFeeRequest{Fee: eth("0.02")}, http.StatusForbidden},
		"negative royalty fee": {"PUT", "/royalty-fee", "0xdeployer", royaltyFeeRequest{Fee: eth("-1")}, http.StatusBadRequest},
		"invalid body":         {"POST", "/items/0/buy", "0xbuyer", "not json", http.StatusBadRequest},
		"unknown route":        {"GET", "/nowhere", "", nil, http.StatusNotFound},
		"anonymous tokens":     {"GET", "/tokens", "", nil, http.StatusUnauthorized},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.caller, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_AlreadySold(t *testing.T) {
	h, _ := newTestServer(t, true)

	rec := do(t, h, "POST", "/items/0/buy", "0xbuyer", buyRequest{Payment: eth("1")})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "POST", "/items/0/buy", "0xbuyer", buyRequest{Payment: eth("1")})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_UpdateRoyaltyFee(t *testing.T) {
	h, _ := newTestServer(t, true)

	rec := do(t, h, "PUT", "/royalty-fee", "0xdeployer", royaltyFeeRequest{Fee: eth("0.05")})
	require.Equal(t, http.StatusOK, rec.Code)

	var info entity.MarketInfo
	decode(t, rec, &info)
	assert.True(t, eth("0.05").Equal(info.RoyaltyFee))
}

func TestServer_Fund(t *testing.T) {
	h, svc := newTestServer(t, false)

	rec := do(t, h, "POST", "/accounts/0xfan/fund", "", fundRequest{Amount: eth("3")})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, eth("3").Equal(svc.Funds("0xfan")))

	rec = do(t, h, "GET", "/accounts/0xfan/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
