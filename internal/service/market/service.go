package market

import (
	"fmt"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/event"
	"github.com/ZilDuck/music-nft-marketplace/internal/marketplace"
	"github.com/ZilDuck/music-nft-marketplace/internal/wallet"
	"github.com/cockroachdb/errors"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"sync"
)

type Service interface {
	Deploy(params marketplace.Params, payment decimal.Decimal) (*entity.MarketInfo, error)
	Load() (bool, error)
	Deployed() bool

	Fund(id entity.Identity, amount decimal.Decimal) (decimal.Decimal, error)
	Funds(id entity.Identity) decimal.Decimal

	BuyToken(buyer entity.Identity, tokenId uint64, payment decimal.Decimal) (*entity.MarketEvent, error)
	ResellToken(caller entity.Identity, tokenId uint64, price, royaltyPayment decimal.Decimal) (*entity.MarketEvent, error)
	UpdateRoyaltyFee(caller entity.Identity, fee decimal.Decimal) error

	Info() (entity.MarketInfo, error)
	AllUnsoldTokens() ([]entity.MarketItem, error)
	MyTokens(caller entity.Identity) ([]entity.MarketItem, error)
	MarketItem(tokenId uint64) (entity.MarketItem, error)
	HolderOf(tokenId uint64) (entity.Identity, error)
	BalanceOf(holder entity.Identity) (uint64, error)
	TokenURI(tokenId uint64) (string, error)
	Events(offset uint64, limit int) ([]entity.MarketEvent, error)
}

type service struct {
	mu     sync.Mutex
	repo   Repository
	book   *wallet.Book
	cache  *cache.Cache
	market *marketplace.Marketplace
}

const (
	cacheKeyInfo   = "info"
	cacheKeyUnsold = "unsold"
)

func NewService(repo Repository, book *wallet.Book, cache *cache.Cache) Service {
	return &service{repo: repo, book: book, cache: cache}
}

func (s *service) Deploy(params marketplace.Params, payment decimal.Decimal) (*entity.MarketInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.market != nil {
		return nil, entity.StateConflict(ErrAlreadyDeployed)
	}

	balances := s.book.Balances()
	m, err := marketplace.Deploy(params, payment, s.book)
	if err != nil {
		return nil, err
	}

	if err := s.repo.WriteMarket(m.Snapshot(), s.book.Balances()); err != nil {
		zap.L().With(zap.Error(err)).Error("MarketService: Failed to persist deployment")
		s.book.Restore(balances)
		return nil, errors.Wrap(err, "persist deployment")
	}

	s.market = m
	s.cache.Flush()

	info := m.Info()
	event.EmitEvent(event.MarketDeployedEvent, info)

	return &info, nil
}

// Load restores a previously deployed marketplace. It reports false when the
// store holds none.
func (s *service) Load() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, balances, err := s.repo.ReadMarket()
	if err != nil {
		return false, errors.Wrap(err, "read market")
	}
	s.book.Restore(balances)
	if state == nil {
		return false, nil
	}

	m, err := marketplace.Restore(*state, s.book)
	if err != nil {
		return false, err
	}

	s.market = m
	s.cache.Flush()

	zap.L().With(
		zap.String("address", m.Address().String()),
		zap.Uint64("items", m.TotalSupply()),
		zap.Int("events", len(state.Events)),
	).Info("MarketService: Loaded marketplace")

	return true, nil
}

func (s *service) Deployed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.market != nil
}

// Fund credits id from outside the ledger and returns the new balance.
func (s *service) Fund(id entity.Identity, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id.IsZero() {
		return decimal.Zero, entity.Validation(marketplace.ErrInvalidIdentity)
	}

	balances := s.book.Balances()
	if err := s.book.Deposit(id, amount); err != nil {
		return decimal.Zero, entity.Validation(err)
	}

	if err := s.persist(); err != nil {
		s.book.Restore(balances)
		return decimal.Zero, err
	}
	s.cache.Flush()

	return s.book.BalanceOf(id), nil
}

func (s *service) Funds(id entity.Identity) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.BalanceOf(id)
}

func (s *service) BuyToken(buyer entity.Identity, tokenId uint64, payment decimal.Decimal) (*entity.MarketEvent, error) {
	var ev *entity.MarketEvent
	err := s.mutate(func(m *marketplace.Marketplace) (err error) {
		ev, err = m.BuyToken(buyer, tokenId, payment)
		return err
	}, func() {
		event.EmitEvent(event.MarketItemBoughtEvent, *ev)
	})
	if err != nil {
		return nil, err
	}

	return ev, nil
}

func (s *service) ResellToken(caller entity.Identity, tokenId uint64, price, royaltyPayment decimal.Decimal) (*entity.MarketEvent, error) {
	var ev *entity.MarketEvent
	err := s.mutate(func(m *marketplace.Marketplace) (err error) {
		ev, err = m.ResellToken(caller, tokenId, price, royaltyPayment)
		return err
	}, func() {
		event.EmitEvent(event.MarketItemRelistedEvent, *ev)
	})
	if err != nil {
		return nil, err
	}

	return ev, nil
}

func (s *service) UpdateRoyaltyFee(caller entity.Identity, fee decimal.Decimal) error {
	return s.mutate(func(m *marketplace.Marketplace) error {
		return m.UpdateRoyaltyFee(caller, fee)
	}, func() {
		event.EmitEvent(event.RoyaltyFeeUpdatedEvent, fee)
	})
}

// mutate runs fn against the ledger and persists the result. When the write
// fails the ledger and the balances are put back to where they were.
// emit runs under the lock once the write succeeded, so listeners receive
// events in sequence order.
func (s *service) mutate(fn func(m *marketplace.Marketplace) error, emit func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.market == nil {
		return entity.StateConflict(ErrNotDeployed)
	}

	snapshot := s.market.Snapshot()
	balances := s.book.Balances()

	if err := fn(s.market); err != nil {
		return err
	}
	s.cache.Flush()

	if err := s.persist(); err != nil {
		s.book.Restore(balances)
		m, restoreErr := marketplace.Restore(snapshot, s.book)
		if restoreErr != nil {
			zap.L().With(zap.Error(restoreErr)).Fatal("MarketService: Failed to roll back")
		}
		s.market = m

		return err
	}
	emit()

	return nil
}

func (s *service) persist() error {
	var err error
	if s.market == nil {
		err = s.repo.WriteBalances(s.book.Balances())
	} else {
		err = s.repo.WriteMarket(s.market.Snapshot(), s.book.Balances())
	}
	if err != nil {
		zap.L().With(zap.Error(err)).Error("MarketService: Failed to persist market")
		return errors.Wrap(err, "persist market")
	}

	return nil
}

func (s *service) Info() (entity.MarketInfo, error) {
	info, err := s.cachedView(cacheKeyInfo, func(m *marketplace.Marketplace) interface{} {
		return m.Info()
	})
	if err != nil {
		return entity.MarketInfo{}, err
	}

	return info.(entity.MarketInfo), nil
}

func (s *service) AllUnsoldTokens() ([]entity.MarketItem, error) {
	items, err := s.cachedView(cacheKeyUnsold, func(m *marketplace.Marketplace) interface{} {
		return m.AllUnsoldTokens()
	})
	if err != nil {
		return nil, err
	}

	return items.([]entity.MarketItem), nil
}

func (s *service) MyTokens(caller entity.Identity) ([]entity.MarketItem, error) {
	items, err := s.cachedView(fmt.Sprintf("tokens:%s", caller), func(m *marketplace.Marketplace) interface{} {
		return m.MyTokens(caller)
	})
	if err != nil {
		return nil, err
	}

	return items.([]entity.MarketItem), nil
}

func (s *service) MarketItem(tokenId uint64) (item entity.MarketItem, err error) {
	err = s.view(func(m *marketplace.Marketplace) error {
		item, err = m.MarketItem(tokenId)
		return err
	})

	return item, err
}

func (s *service) HolderOf(tokenId uint64) (holder entity.Identity, err error) {
	err = s.view(func(m *marketplace.Marketplace) error {
		holder, err = m.HolderOf(tokenId)
		return err
	})

	return holder, err
}

func (s *service) BalanceOf(holder entity.Identity) (balance uint64, err error) {
	err = s.view(func(m *marketplace.Marketplace) error {
		balance = m.BalanceOf(holder)
		return nil
	})

	return balance, err
}

func (s *service) TokenURI(tokenId uint64) (uri string, err error) {
	err = s.view(func(m *marketplace.Marketplace) error {
		uri, err = m.TokenURI(tokenId)
		return err
	})

	return uri, err
}

// Events pages through the persisted audit log. A limit of zero returns every
// event from offset on.
func (s *service) Events(offset uint64, limit int) ([]entity.MarketEvent, error) {
	if !s.Deployed() {
		return nil, entity.StateConflict(ErrNotDeployed)
	}

	return s.repo.ListEvents(offset, limit)
}

// cachedView serves key from the cache, building it under the lock so a
// concurrent mutation cannot leave a stale entry behind.
func (s *service) cachedView(key string, build func(m *marketplace.Marketplace) interface{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.market == nil {
		return nil, entity.StateConflict(ErrNotDeployed)
	}

	if cached, found := s.cache.Get(key); found {
		return cached, nil
	}

	val := build(s.market)
	s.cache.Set(key, val, cache.DefaultExpiration)

	return val, nil
}

func (s *service) view(fn func(m *marketplace.Marketplace) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.market == nil {
		return entity.StateConflict(ErrNotDeployed)
	}

	return fn(s.market)
}
