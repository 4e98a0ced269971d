package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SagaEventKind string

const (
	SagaInitiated SagaEventKind = "COLLECTION_INITIATED"
	SagaCallback  SagaEventKind = "CALLBACK_RECEIVED"
)

// SagaEvent is one journaled occurrence in the life of an interoperability
// saga, keyed by the correlation id that ties the collection to its
// callback.
type SagaEvent struct {
	ID            string          `json:"id"`
	CorrelationID string          `json:"correlation_id"`
	Kind          SagaEventKind   `json:"kind"`
	ResultCode    string          `json:"result_code,omitempty"`
	ResultDesc    string          `json:"result_desc,omitempty"`
	Disbursed     bool            `json:"disbursed"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
