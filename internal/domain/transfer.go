package domain

import "github.com/shopspring/decimal"

type StepStatus string

const (
	StepInitiated StepStatus = "INITIATED"
	StepSettled   StepStatus = "SETTLED"
	StepCompleted StepStatus = "COMPLETED"
)

// TransferStep is one recorded leg of a settlement. The three steps of a
// transfer are ordered: INITIATED, SETTLED, COMPLETED.
type TransferStep struct {
	Status      StepStatus `json:"status"`
	Description string     `json:"description"`
	Details     string     `json:"details"`
}

// TransferResult is the full trace of a settled transfer: the ordered step
// records, the amount that reached the destination after the fee, and a
// snapshot of the three touched accounts taken after the last step.
type TransferResult struct {
	ID            string             `json:"id"`
	SourceID      string             `json:"source_paybill"`
	DestinationID string             `json:"destination_paybill"`
	Amount        decimal.Decimal    `json:"amount"`
	Fee           decimal.Decimal    `json:"settlement_fee"`
	Payout        decimal.Decimal    `json:"final_amount_credited"`
	Steps         []TransferStep     `json:"transaction_steps"`
	Snapshot      map[string]Account `json:"current_ledger_snapshot"`
}
