package store

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/ZilDuck/music-nft-marketplace/internal/marketplace"
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
	"time"
)

const (
	prefixMarketProperties = "MARKET:PROPERTIES"
	prefixMarketItem       = "MARKET:ITEM:"
	prefixMarketHolder     = "MARKET:HOLDER:"
	prefixMarketEvent      = "MARKET:EVENT:"
	prefixWalletBalance    = "WALLET:BALANCE:"
)

type propertiesRecord struct {
	Name       string
	Symbol     string
	BaseURI    string
	Address    string
	Owner      string
	Artist     string
	RoyaltyFee string
	Items      uint64
}

type itemRecord struct {
	TokenId uint64
	Listed  bool
	Seller  string
	Price   string
}

type eventRecord struct {
	ID        string
	Seq       uint64
	Type      string
	TokenId   uint64
	Seller    string
	Buyer     string
	Price     string
	Royalty   string
	CreatedAt time.Time
}

// WriteMarket persists the ledger and the balances in one transaction. Events
// already on disk are never rewritten.
func (bs *BadgerStore) WriteMarket(state marketplace.State, balances map[entity.Identity]decimal.Decimal) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		props := propertiesRecord{
			Name:       state.Name,
			Symbol:     state.Symbol,
			BaseURI:    state.BaseURI,
			Address:    state.Address.String(),
			Owner:      state.Owner.String(),
			Artist:     state.Artist.String(),
			RoyaltyFee: state.RoyaltyFee.String(),
			Items:      uint64(len(state.Items)),
		}
		if err := txn.Set([]byte(prefixMarketProperties), msgpackMarshalPanic(props)); err != nil {
			return err
		}

		for i, item := range state.Items {
			rec := itemRecord{
				TokenId: item.TokenId,
				Listed:  item.IsListed(),
				Seller:  item.SellerIdentity().String(),
				Price:   item.Price.String(),
			}
			if err := txn.Set(itemKey(item.TokenId), msgpackMarshalPanic(rec)); err != nil {
				return err
			}
			if err := txn.Set(holderKey(item.TokenId), []byte(state.Holders[i])); err != nil {
				return err
			}
		}

		for i := len(state.Events) - 1; i >= 0; i-- {
			ev := state.Events[i]
			key := eventKey(ev.Seq)
			_, err := txn.Get(key)
			if err == nil {
				break
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Set(key, msgpackMarshalPanic(newEventRecord(ev))); err != nil {
				return err
			}
		}

		return writeBalances(txn, balances)
	})
}

// WriteBalances persists the balances alone, for funds moved before the
// marketplace exists.
func (bs *BadgerStore) WriteBalances(balances map[entity.Identity]decimal.Decimal) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return writeBalances(txn, balances)
	})
}

// ReadMarket loads the ledger and balances. The state is nil when the
// marketplace has not been deployed yet.
func (bs *BadgerStore) ReadMarket() (*marketplace.State, map[entity.Identity]decimal.Decimal, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	balances, err := readBalances(txn)
	if err != nil {
		return nil, nil, err
	}

	val, err := readValue(txn, []byte(prefixMarketProperties))
	if err != nil {
		return nil, nil, err
	}
	if val == nil {
		return nil, balances, nil
	}
	var props propertiesRecord
	if err := msgpackUnmarshal(val, &props); err != nil {
		return nil, nil, err
	}

	royaltyFee, err := decimal.NewFromString(props.RoyaltyFee)
	if err != nil {
		return nil, nil, errors.Wrap(err, "royalty fee")
	}
	state := &marketplace.State{
		Name:       props.Name,
		Symbol:     props.Symbol,
		BaseURI:    props.BaseURI,
		Address:    entity.Identity(props.Address),
		Owner:      entity.Identity(props.Owner),
		Artist:     entity.Identity(props.Artist),
		RoyaltyFee: royaltyFee,
		Items:      make([]entity.MarketItem, 0, props.Items),
		Holders:    make([]entity.Identity, 0, props.Items),
	}

	for tokenId := uint64(0); tokenId < props.Items; tokenId++ {
		item, holder, err := readItem(txn, tokenId)
		if err != nil {
			return nil, nil, err
		}
		state.Items = append(state.Items, item)
		state.Holders = append(state.Holders, holder)
	}

	state.Events, err = listEvents(txn, 0, 0)
	if err != nil {
		return nil, nil, err
	}

	return state, balances, nil
}

// ListEvents returns up to limit events starting at sequence offset. A limit
// of zero means no limit.
func (bs *BadgerStore) ListEvents(offset uint64, limit int) ([]entity.MarketEvent, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return listEvents(txn, offset, limit)
}

func readItem(txn *badger.Txn, tokenId uint64) (entity.MarketItem, entity.Identity, error) {
	val, err := readValue(txn, itemKey(tokenId))
	if err != nil {
		return entity.MarketItem{}, entity.NoIdentity, err
	}
	if val == nil {
		return entity.MarketItem{}, entity.NoIdentity, errors.Newf("item %d missing", tokenId)
	}
	var rec itemRecord
	if err := msgpackUnmarshal(val, &rec); err != nil {
		return entity.MarketItem{}, entity.NoIdentity, err
	}
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return entity.MarketItem{}, entity.NoIdentity, errors.Wrapf(err, "price of item %d", tokenId)
	}
	item := entity.MarketItem{TokenId: rec.TokenId, Price: price}
	if rec.Listed {
		item.Seller = entity.Identity(rec.Seller).Ptr()
	}

	holder, err := readValue(txn, holderKey(tokenId))
	if err != nil {
		return entity.MarketItem{}, entity.NoIdentity, err
	}

	return item, entity.Identity(holder), nil
}

func listEvents(txn *badger.Txn, offset uint64, limit int) ([]entity.MarketEvent, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixMarketEvent)
	it := txn.NewIterator(opts)
	defer it.Close()

	events := make([]entity.MarketEvent, 0)
	for it.Seek(eventKey(offset)); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var rec eventRecord
		if err := msgpackUnmarshal(val, &rec); err != nil {
			return nil, err
		}
		ev, err := rec.event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
		if len(events) == limit {
			break
		}
	}

	return events, nil
}

func writeBalances(txn *badger.Txn, balances map[entity.Identity]decimal.Decimal) error {
	for id, amount := range balances {
		if err := txn.Set([]byte(prefixWalletBalance+id.String()), []byte(amount.String())); err != nil {
			return err
		}
	}

	return nil
}

func readBalances(txn *badger.Txn) (map[entity.Identity]decimal.Decimal, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixWalletBalance)
	it := txn.NewIterator(opts)
	defer it.Close()

	balances := make(map[entity.Identity]decimal.Decimal)
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		id := entity.Identity(key[len(opts.Prefix):])
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(string(val))
		if err != nil {
			return nil, errors.Wrapf(err, "balance of %s", id)
		}
		balances[id] = amount
	}

	return balances, nil
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func newEventRecord(ev entity.MarketEvent) eventRecord {
	return eventRecord{
		ID:        ev.ID,
		Seq:       ev.Seq,
		Type:      string(ev.Type),
		TokenId:   ev.TokenId,
		Seller:    ev.Seller.String(),
		Buyer:     ev.Buyer.String(),
		Price:     ev.Price.String(),
		Royalty:   ev.Royalty.String(),
		CreatedAt: ev.CreatedAt,
	}
}

func (r eventRecord) event() (entity.MarketEvent, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return entity.MarketEvent{}, errors.Wrapf(err, "price of event %d", r.Seq)
	}
	royalty, err := decimal.NewFromString(r.Royalty)
	if err != nil {
		return entity.MarketEvent{}, errors.Wrapf(err, "royalty of event %d", r.Seq)
	}

	return entity.MarketEvent{
		ID:        r.ID,
		Seq:       r.Seq,
		Type:      entity.EventType(r.Type),
		TokenId:   r.TokenId,
		Seller:    entity.Identity(r.Seller),
		Buyer:     entity.Identity(r.Buyer),
		Price:     price,
		Royalty:   royalty,
		CreatedAt: r.CreatedAt,
	}, nil
}

func itemKey(tokenId uint64) []byte {
	return append([]byte(prefixMarketItem), uint64ToBytes(tokenId)...)
}

func holderKey(tokenId uint64) []byte {
	return append([]byte(prefixMarketHolder), uint64ToBytes(tokenId)...)
}

func eventKey(seq uint64) []byte {
	return append([]byte(prefixMarketEvent), uint64ToBytes(seq)...)
}
