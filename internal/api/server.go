package api

import (
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/helper"
	"github.com/ZilDuck/music-nft-marketplace/internal/marketplace"
	"github.com/ZilDuck/music-nft-marketplace/internal/service/market"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"net/http"
	"strconv"
)

// IdentityHeader carries the caller identity of every request.
const IdentityHeader = "X-Identity"

var (
	errInvalidTokenId = errors.New("invalid tokenId")
	errMissingCaller  = errors.New("missing " + IdentityHeader + " header")
	errInvalidBody    = errors.New("invalid request body")
)

type Server struct {
	market  market.Service
	gateway string
	faucet  bool
}

// NewServer builds the HTTP API. Token uris on the ipfs scheme are also
// exposed through gateway; faucet enables the funding endpoint.
func NewServer(market market.Service, gateway string, faucet bool) Server {
	return Server{market, gateway, faucet}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/market", s.handleGetMarket).Methods("GET")
	r.HandleFunc("/items", s.handleGetUnsold).Methods("GET")
	r.HandleFunc("/items/{tokenId}", s.handleGetItem).Methods("GET")
	r.HandleFunc("/items/{tokenId}/buy", s.handleBuy).Methods("POST")
	r.HandleFunc("/items/{tokenId}/resell", s.handleResell).Methods("POST")
	r.HandleFunc("/royalty-fee", s.handleUpdateRoyaltyFee).Methods("PUT")
	r.HandleFunc("/tokens", s.handleGetMyTokens).Methods("GET")
	r.HandleFunc("/accounts/{identity}/tokens", s.handleGetTokens).Methods("GET")
	r.HandleFunc("/accounts/{identity}/balance", s.handleGetBalance).Methods("GET")
	r.HandleFunc("/events", s.handleGetEvents).Methods("GET")
	if s.faucet {
		r.HandleFunc("/accounts/{identity}/fund", s.handleFund).Methods("POST")
	}
	r.NotFoundHandler = notFoundHandler()

	return r
}

type itemResponse struct {
	entity.MarketItem
	Holder     entity.Identity `json:"holder"`
	TokenURI   string          `json:"tokenUri"`
	GatewayURI string          `json:"gatewayUri"`
}

type balanceResponse struct {
	Identity entity.Identity `json:"identity"`
	Tokens   uint64          `json:"tokens"`
	Funds    decimal.Decimal `json:"funds"`
}

type buyRequest struct {
	Payment decimal.Decimal `json:"payment"`
}

type resellRequest struct {
	Price   decimal.Decimal `json:"price"`
	Royalty decimal.Decimal `json:"royalty"`
}

type royaltyFeeRequest struct {
	Fee decimal.Decimal `json:"fee"`
}

type fundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]bool{"deployed": s.market.Deployed()})
}

func (s Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	info, err := s.market.Info()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, info)
}

func (s Server) handleGetUnsold(w http.ResponseWriter, r *http.Request) {
	items, err := s.market.AllUnsoldTokens()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, items)
}

func (s Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := s.market.MarketItem(tokenId)
	if err != nil {
		writeError(w, err)
		return
	}
	holder, err := s.market.HolderOf(tokenId)
	if err != nil {
		writeError(w, err)
		return
	}
	uri, err := s.market.TokenURI(tokenId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, itemResponse{item, holder, uri, helper.GatewayUri(uri, s.gateway)})
}

func (s Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	caller, tokenId, ok := callerAndToken(w, r)
	if !ok {
		return
	}

	var req buyRequest
	if !readJson(w, r, &req) {
		return
	}

	ev, err := s.market.BuyToken(caller, tokenId, req.Payment)
	if err != nil {
		zap.L().With(zap.Error(err), zap.Uint64("tokenId", tokenId), zap.String("buyer", caller.String())).Info("API: Purchase rejected")
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, ev)
}

func (s Server) handleResell(w http.ResponseWriter, r *http.Request) {
	caller, tokenId, ok := callerAndToken(w, r)
	if !ok {
		return
	}

	var req resellRequest
	if !readJson(w, r, &req) {
		return
	}

	ev, err := s.market.ResellToken(caller, tokenId, req.Price, req.Royalty)
	if err != nil {
		zap.L().With(zap.Error(err), zap.Uint64("tokenId", tokenId), zap.String("seller", caller.String())).Info("API: Resale rejected")
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, ev)
}

func (s Server) handleUpdateRoyaltyFee(w http.ResponseWriter, r *http.Request) {
	caller, err := getCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req royaltyFeeRequest
	if !readJson(w, r, &req) {
		return
	}

	if err := s.market.UpdateRoyaltyFee(caller, req.Fee); err != nil {
		writeError(w, err)
		return
	}

	info, err := s.market.Info()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, info)
}

// handleGetMyTokens lists the tokens held by the caller.
func (s Server) handleGetMyTokens(w http.ResponseWriter, r *http.Request) {
	caller, err := getCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.writeTokens(w, caller)
}

// handleGetTokens is the public view of any account's holdings; ownership is
// readable by everyone through holderOf anyway.
func (s Server) handleGetTokens(w http.ResponseWriter, r *http.Request) {
	s.writeTokens(w, getIdentity(r))
}

func (s Server) writeTokens(w http.ResponseWriter, id entity.Identity) {
	items, err := s.market.MyTokens(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, items)
}

func (s Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id := getIdentity(r)
	tokens, err := s.market.BalanceOf(id)
	if err != nil && !errors.Is(err, market.ErrNotDeployed) {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, balanceResponse{id, tokens, s.market.Funds(id)})
}

func (s Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	offset, err := getQueryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := getQueryInt(r, "limit", 100)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := s.market.Events(uint64(offset), int(limit))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, events)
}

func (s Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if !readJson(w, r, &req) {
		return
	}

	id := getIdentity(r)
	funds, err := s.market.Fund(id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	tokens, _ := s.market.BalanceOf(id)
	writeJson(w, http.StatusOK, balanceResponse{id, tokens, funds})
}

func callerAndToken(w http.ResponseWriter, r *http.Request) (entity.Identity, uint64, bool) {
	caller, err := getCaller(r)
	if err != nil {
		writeError(w, err)
		return entity.NoIdentity, 0, false
	}

	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return entity.NoIdentity, 0, false
	}

	return caller, tokenId, true
}

func getCaller(r *http.Request) (entity.Identity, error) {
	caller := entity.Identity(r.Header.Get(IdentityHeader))
	if caller.IsZero() {
		return entity.NoIdentity, entity.Authorization(errMissingCaller)
	}

	return caller, nil
}

func getIdentity(r *http.Request) entity.Identity {
	return entity.Identity(mux.Vars(r)["identity"])
}

func getTokenId(r *http.Request) (uint64, error) {
	tokenId, err := strconv.ParseUint(mux.Vars(r)["tokenId"], 10, 64)
	if err != nil {
		return 0, entity.Validation(errInvalidTokenId)
	}

	return tokenId, nil
}

func getQueryInt(r *http.Request, key string, defaultValue uint64) (uint64, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseUint(valStr, 10, 32)
	if err != nil {
		return 0, entity.Validation(errors.Newf("invalid %s", key))
	}

	return val, nil
}

func readJson(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, entity.Validation(errors.Wrap(errInvalidBody, err.Error())))
		return false
	}

	return true
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Error("API: Failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		zap.L().With(zap.Error(err)).Error("API: Request failed")
	}

	resp := errorResponse{Error: err.Error()}
	if category := entity.Category(err); category != nil {
		resp.Category = category.Error()
	}

	writeJson(w, status, resp)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, marketplace.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, errMissingCaller):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, entity.ErrPaymentMismatch):
		return http.StatusPaymentRequired
	}

	return http.StatusInternalServerError
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("%s not found", r.URL.Path)})
	})
}
