package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingSession is the disbursement context stored between the two phases
// of an interoperability saga: written when a collection request returns a
// correlation id, consumed exactly once when the matching callback arrives.
//
// The typed fields are what the disbursement leg requires; Metadata is an
// open-ended pass-through merged into the outbound request for provenance.
type PendingSession struct {
	CorrelationID   string          `json:"correlation_id"`
	PaybillID       string          `json:"paybill_id"`
	RecipientMSISDN string          `json:"recipient_msisdn"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Country         string          `json:"country"`
	Narrative       string          `json:"narrative"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
