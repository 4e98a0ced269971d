package settlement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
	"github.com/wakala/interop/internal/ledger"
)

// DefaultFeeRate is the internal settlement fee retained by the
// intermediary on every cross-network transfer.
var DefaultFeeRate = decimal.NewFromFloat(0.01)

// Engine executes cross-network paybill transfers against the ledger.
// It holds no state of its own beyond its wiring and performs no I/O.
type Engine struct {
	ledger         *ledger.Ledger
	intermediaryID string
	feeRate        decimal.Decimal
}

// NewEngine creates a settlement engine. feeRate is the fraction of each
// transfer retained at the intermediary (e.g. 0.01 for 1%).
func NewEngine(l *ledger.Ledger, intermediaryID string, feeRate decimal.Decimal) *Engine {
	return &Engine{ledger: l, intermediaryID: intermediaryID, feeRate: feeRate}
}

// Transfer moves amount from the source paybill to the destination paybill
// through the intermediary float, retaining the settlement fee:
//
//  1. debit source, credit intermediary          (INITIATED)
//  2. mark the fee as retained at the float      (SETTLED)
//  3. debit intermediary, credit destination     (COMPLETED)
//
// All three steps run as one ledger transaction, so a failure in any step
// leaves every balance as it was. Preconditions are checked before any
// mutation and fail fast with the matching domain error.
func (e *Engine) Transfer(sourceID, destID string, amount decimal.Decimal) (*domain.TransferResult, error) {
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	source, err := e.ledger.Get(sourceID)
	if err != nil {
		return nil, err
	}
	if _, err := e.ledger.Get(destID); err != nil {
		return nil, err
	}
	if source.Balance.LessThan(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	fee := amount.Mul(e.feeRate).Round(2)
	payout := amount.Sub(fee)

	result := &domain.TransferResult{
		ID:            uuid.NewString(),
		SourceID:      sourceID,
		DestinationID: destID,
		Amount:        amount,
		Fee:           fee,
		Payout:        payout,
	}

	err = e.ledger.Transact(func(tx *ledger.Txn) error {
		// Step 1: digital debit into the intermediary float.
		if err := tx.Debit(sourceID, amount); err != nil {
			return err
		}
		if err := tx.Credit(e.intermediaryID, amount); err != nil {
			return err
		}
		src, _ := tx.Get(sourceID)
		float, _ := tx.Get(e.intermediaryID)
		result.Steps = append(result.Steps, domain.TransferStep{
			Status:      domain.StepInitiated,
			Description: fmt.Sprintf("STEP 1: %s debited. Funds moved digitally to intermediary float.", sourceID),
			Details:     fmt.Sprintf("Source balance: %s, intermediary float: %s", src.Balance.StringFixed(2), float.Balance.StringFixed(2)),
		})

		// Step 2: bank settlement. The fee is already inside the float from
		// step 1; this step records its retention rather than moving money.
		result.Steps = append(result.Steps, domain.TransferStep{
			Status:      domain.StepSettled,
			Description: "STEP 2: Bank settlement occurs.",
			Details:     fmt.Sprintf("Amount allocated to %s float. Settlement fee: %s (retained in intermediary float).", destID, fee.StringFixed(2)),
		})

		// Step 3: digital credit of the payout on the destination rail.
		if err := tx.Debit(e.intermediaryID, payout); err != nil {
			return err
		}
		if err := tx.Credit(destID, payout); err != nil {
			return err
		}
		dst, _ := tx.Get(destID)
		float, _ = tx.Get(e.intermediaryID)
		result.Steps = append(result.Steps, domain.TransferStep{
			Status:      domain.StepCompleted,
			Description: fmt.Sprintf("STEP 3: %s credited successfully.", destID),
			Details:     fmt.Sprintf("Destination balance: %s, final intermediary float: %s", dst.Balance.StringFixed(2), float.Balance.StringFixed(2)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := e.ledger.Snapshot()
	result.Snapshot = map[string]domain.Account{
		sourceID:         snap[sourceID],
		destID:           snap[destID],
		e.intermediaryID: snap[e.intermediaryID],
	}
	return result, nil
}
