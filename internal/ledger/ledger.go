package ledger

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
)

// Ledger is the in-memory account store shared by every settlement. It is
// owned by whoever constructs it and passed by reference into the services
// that need it; all mutation goes through Debit, Credit or Transact.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

// New creates a ledger seeded with the given accounts. Balances are
// normalized to two decimal places on the way in.
func New(seed []domain.Account) *Ledger {
	l := &Ledger{accounts: make(map[string]*domain.Account, len(seed))}
	for _, acc := range seed {
		acc.Balance = acc.Balance.Round(2)
		a := acc
		l.accounts[acc.ID] = &a
	}
	return l
}

// Get returns a copy of the account with the given id.
func (l *Ledger) Get(id string) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *acc, nil
}

// Debit decreases the balance of the account by amount.
func (l *Ledger) Debit(id string, amount decimal.Decimal) error {
	return l.Transact(func(tx *Txn) error {
		return tx.Debit(id, amount)
	})
}

// Credit increases the balance of the account by amount.
func (l *Ledger) Credit(id string, amount decimal.Decimal) error {
	return l.Transact(func(tx *Txn) error {
		return tx.Credit(id, amount)
	})
}

// Transact runs fn as a single atomic unit. The ledger lock is held for the
// whole of fn, so no reader observes an intermediate state, and if fn
// returns an error every balance it touched is restored. Exactly one of
// {all mutations applied, no mutations applied} holds on return.
func (l *Ledger) Transact(fn func(tx *Txn) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &Txn{ledger: l, original: make(map[string]decimal.Decimal)}
	if err := fn(tx); err != nil {
		for id, bal := range tx.original {
			l.accounts[id].Balance = bal
		}
		return err
	}
	return nil
}

// Snapshot returns a copy of every account keyed by id.
func (l *Ledger) Snapshot() map[string]domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := make(map[string]domain.Account, len(l.accounts))
	for id, acc := range l.accounts {
		snap[id] = *acc
	}
	return snap
}

// Accounts returns every account ordered by id.
func (l *Ledger) Accounts() []domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	accs := make([]domain.Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accs = append(accs, *acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].ID < accs[j].ID })
	return accs
}

// Txn exposes the ledger primitives inside a Transact critical section and
// remembers the pre-transaction balance of every account it touches so a
// failed transaction can be rolled back.
type Txn struct {
	ledger   *Ledger
	original map[string]decimal.Decimal
}

// Get returns a copy of the account as it stands inside the transaction.
func (tx *Txn) Get(id string) (domain.Account, error) {
	acc, ok := tx.ledger.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *acc, nil
}

// Debit decreases the account balance, failing with ErrInsufficientFunds
// if the balance would go negative.
func (tx *Txn) Debit(id string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	acc, ok := tx.ledger.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Balance.LessThan(amount) {
		return domain.ErrInsufficientFunds
	}
	tx.touch(id, acc.Balance)
	acc.Balance = acc.Balance.Sub(amount)
	return nil
}

// Credit increases the account balance.
func (tx *Txn) Credit(id string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	acc, ok := tx.ledger.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	tx.touch(id, acc.Balance)
	acc.Balance = acc.Balance.Add(amount)
	return nil
}

func (tx *Txn) touch(id string, balance decimal.Decimal) {
	if _, seen := tx.original[id]; !seen {
		tx.original[id] = balance
	}
}
