package wallet

import (
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	ErrNegativeAmount    = errors.New("wallet: negative amount")
	ErrRejected          = errors.New("wallet: recipient rejected funds")
	ErrReentrantSettle   = errors.New("wallet: book changed while notifying recipients")
)

type Transfer struct {
	From   entity.Identity
	To     entity.Identity
	Amount decimal.Decimal
}

// Receiver is notified before funds are credited to its identity. Returning
// an error rejects the whole settlement. The book is locked while receivers
// run: Settle and Deposit fail with ErrReentrantSettle.
type Receiver interface {
	Receive(from entity.Identity, amount decimal.Decimal) error
}

type ReceiverFunc func(from entity.Identity, amount decimal.Decimal) error

func (f ReceiverFunc) Receive(from entity.Identity, amount decimal.Decimal) error {
	return f(from, amount)
}

// Book holds the balance of every identity and moves value between them.
type Book struct {
	balances  map[entity.Identity]decimal.Decimal
	receivers map[entity.Identity]Receiver
	settling  bool
}

func NewBook() *Book {
	return &Book{
		balances:  make(map[entity.Identity]decimal.Decimal),
		receivers: make(map[entity.Identity]Receiver),
	}
}

func (b *Book) BalanceOf(id entity.Identity) decimal.Decimal {
	return b.balances[id]
}

// Deposit credits value from outside the book.
func (b *Book) Deposit(id entity.Identity, amount decimal.Decimal) error {
	if b.settling {
		return errors.Wrapf(ErrReentrantSettle, "deposit %s to %s", amount, id)
	}
	if amount.IsNegative() {
		return errors.Wrapf(ErrNegativeAmount, "deposit %s to %s", amount, id)
	}
	b.balances[id] = b.balances[id].Add(amount)

	return nil
}

func (b *Book) SetReceiver(id entity.Identity, r Receiver) {
	if r == nil {
		delete(b.receivers, id)
		return
	}
	b.receivers[id] = r
}

// Settle applies every transfer or none of them. Transfers are applied in
// order, so a later transfer may spend value credited by an earlier one.
func (b *Book) Settle(transfers ...Transfer) error {
	if b.settling {
		return errors.Wrapf(ErrReentrantSettle, "%d transfers", len(transfers))
	}

	pending := make(map[entity.Identity]decimal.Decimal)
	balance := func(id entity.Identity) decimal.Decimal {
		if v, ok := pending[id]; ok {
			return v
		}
		return b.balances[id]
	}

	for _, t := range transfers {
		if t.Amount.IsNegative() {
			return errors.Wrapf(ErrNegativeAmount, "%s -> %s", t.From, t.To)
		}
		if balance(t.From).LessThan(t.Amount) {
			return errors.Wrapf(ErrInsufficientFunds, "%s holds %s, needs %s", t.From, balance(t.From), t.Amount)
		}
		pending[t.From] = balance(t.From).Sub(t.Amount)
		pending[t.To] = balance(t.To).Add(t.Amount)
	}

	if err := b.notify(transfers); err != nil {
		return err
	}

	for id, v := range pending {
		b.balances[id] = v
	}

	return nil
}

func (b *Book) notify(transfers []Transfer) error {
	b.settling = true
	defer func() { b.settling = false }()

	for _, t := range transfers {
		r, ok := b.receivers[t.To]
		if !ok {
			continue
		}
		if err := r.Receive(t.From, t.Amount); err != nil {
			zap.L().With(zap.String("to", t.To.String()), zap.Error(err)).Warn("Wallet: Recipient rejected funds")
			return errors.Mark(errors.Wrapf(err, "%s rejected %s from %s", t.To, t.Amount, t.From), ErrRejected)
		}
	}

	return nil
}

func (b *Book) Balances() map[entity.Identity]decimal.Decimal {
	balances := make(map[entity.Identity]decimal.Decimal, len(b.balances))
	for id, v := range b.balances {
		balances[id] = v
	}

	return balances
}

func (b *Book) Restore(balances map[entity.Identity]decimal.Decimal) {
	b.balances = make(map[entity.Identity]decimal.Decimal, len(balances))
	for id, v := range balances {
		b.balances[id] = v
	}
}
