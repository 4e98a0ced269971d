package domain

import "github.com/shopspring/decimal"

type Network string

const (
	NetworkMpesa        Network = "MPESA"
	NetworkAirtel       Network = "AIRTEL"
	NetworkIntermediary Network = "INTERMEDIARY"
)

// Account is a paybill (or the intermediary float) on one payment rail.
// Balances carry two-decimal money semantics and are mutated only through
// the ledger.
type Account struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Network Network         `json:"network"`
}
