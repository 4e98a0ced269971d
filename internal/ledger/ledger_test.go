package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wakala/interop/internal/domain"
)

func newTestLedger() *Ledger {
	return New([]domain.Account{
		{ID: "A", Name: "Paybill A", Balance: decimal.NewFromInt(1000), Network: domain.NetworkMpesa},
		{ID: "B", Name: "Paybill B", Balance: decimal.NewFromInt(500), Network: domain.NetworkAirtel},
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	acc, err := l.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "Paybill A", acc.Name)
	assert.Equal(t, "1000.00", acc.Balance.StringFixed(2))

	_, err = l.Get("MISSING")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDebitCredit(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	require.NoError(t, l.Debit("A", decimal.NewFromInt(100)))
	require.NoError(t, l.Credit("B", decimal.NewFromInt(100)))

	a, _ := l.Get("A")
	b, _ := l.Get("B")
	assert.Equal(t, "900.00", a.Balance.StringFixed(2))
	assert.Equal(t, "600.00", b.Balance.StringFixed(2))
}

func TestDebit_Errors(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	assert.ErrorIs(t, l.Debit("A", decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, l.Debit("A", decimal.NewFromInt(-5)), domain.ErrInvalidAmount)
	assert.ErrorIs(t, l.Debit("MISSING", decimal.NewFromInt(10)), domain.ErrAccountNotFound)
	assert.ErrorIs(t, l.Debit("A", decimal.NewFromInt(1001)), domain.ErrInsufficientFunds)

	// No failed debit may leave a partial mutation behind.
	a, _ := l.Get("A")
	assert.Equal(t, "1000.00", a.Balance.StringFixed(2))
}

func TestCredit_Errors(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	assert.ErrorIs(t, l.Credit("A", decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, l.Credit("MISSING", decimal.NewFromInt(10)), domain.ErrAccountNotFound)
}

func TestTransact_RollsBackOnError(t *testing.T) {
	t.Parallel()

	l := newTestLedger()
	boom := errors.New("boom")

	err := l.Transact(func(tx *Txn) error {
		require.NoError(t, tx.Debit("A", decimal.NewFromInt(100)))
		require.NoError(t, tx.Credit("B", decimal.NewFromInt(100)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, _ := l.Get("A")
	b, _ := l.Get("B")
	assert.Equal(t, "1000.00", a.Balance.StringFixed(2))
	assert.Equal(t, "500.00", b.Balance.StringFixed(2))
}

func TestTransact_RollsBackMidSequenceFailure(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	err := l.Transact(func(tx *Txn) error {
		if err := tx.Debit("A", decimal.NewFromInt(100)); err != nil {
			return err
		}
		// Second debit exceeds what is left on B.
		return tx.Debit("B", decimal.NewFromInt(600))
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	a, _ := l.Get("A")
	b, _ := l.Get("B")
	assert.Equal(t, "1000.00", a.Balance.StringFixed(2))
	assert.Equal(t, "500.00", b.Balance.StringFixed(2))
}

func TestTransact_ConcurrentTransfersConserveTotal(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Transact(func(tx *Txn) error {
				if err := tx.Debit("A", decimal.NewFromInt(10)); err != nil {
					return err
				}
				return tx.Credit("B", decimal.NewFromInt(10))
			})
		}()
	}
	wg.Wait()

	a, _ := l.Get("A")
	b, _ := l.Get("B")
	total := a.Balance.Add(b.Balance)
	assert.Equal(t, "1500.00", total.StringFixed(2))
	assert.Equal(t, "500.00", a.Balance.StringFixed(2))
	assert.Equal(t, "1000.00", b.Balance.StringFixed(2))
}

func TestSnapshotAndAccounts(t *testing.T) {
	t.Parallel()

	l := newTestLedger()

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "Paybill B", snap["B"].Name)

	accs := l.Accounts()
	require.Len(t, accs, 2)
	assert.Equal(t, "A", accs[0].ID)
	assert.Equal(t, "B", accs[1].ID)

	// Mutating the snapshot must not touch the ledger.
	acc := snap["A"]
	acc.Balance = decimal.Zero
	real, _ := l.Get("A")
	assert.Equal(t, "1000.00", real.Balance.StringFixed(2))
}
