package saga

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
	"github.com/wakala/interop/internal/gateway"
)

// CollectionGateway places a push-payment collection request on the
// collection rail and returns the correlation id the asynchronous callback
// will carry.
type CollectionGateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal, accountReference, description string) (*gateway.STKPushResponse, error)
}

// DisbursementGateway pays out from a paybill to a customer wallet on the
// disbursement rail.
type DisbursementGateway interface {
	PaybillToCustomer(ctx context.Context, paybillID, msisdn string, amount decimal.Decimal, currency, country, reference string) (*gateway.DisbursementResponse, error)
}

// Journal records saga events for observability. Recording failures never
// fail the money path.
type Journal interface {
	RecordSagaEvent(ev domain.SagaEvent) error
}

// DisbursementTarget describes the phase-2 payout a collection is chained
// into. A zero Amount means "disburse the collected amount"; Currency and
// Country default to the KES/KEN corridor.
type DisbursementTarget struct {
	PaybillID       string          `json:"paybill_id"`
	RecipientMSISDN string          `json:"recipient_msisdn"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Country         string          `json:"country"`
	Narrative       string          `json:"narrative"`
	Metadata        map[string]any  `json:"metadata"`
}

// InitiateRequest starts an interoperability saga: collect from the payer
// phone, then (on callback success) disburse per the target.
type InitiateRequest struct {
	PhoneNumber      string             `json:"phone_number"`
	Amount           decimal.Decimal    `json:"amount"`
	AccountReference string             `json:"account_reference"`
	Description      string             `json:"description"`
	Disbursement     DisbursementTarget `json:"disbursement"`
}

// InitiateResult is the phase-1 outcome. CorrelationID is empty when the
// collection rail supplied none, in which case no session was stored and
// phase 2 can never trigger for this request.
type InitiateResult struct {
	CorrelationID string                   `json:"correlation_id"`
	Response      *gateway.STKPushResponse `json:"response"`
}

// STKCallback is the asynchronous notification delivered by the collection
// rail. ResultCode zero means the payer completed the push payment.
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string      `json:"MerchantRequestID"`
			CheckoutRequestID string      `json:"CheckoutRequestID"`
			ResultCode        json.Number `json:"ResultCode"`
			ResultDesc        string      `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// Succeeded reports whether the callback carries a success result code.
func (cb *STKCallback) Succeeded() bool {
	return cb.Body.StkCallback.ResultCode.String() == "0"
}

// CallbackResult summarizes what a callback delivery caused. It is
// observational: the rail delivering the callback only cares about the
// acknowledgment, not about retrying.
type CallbackResult struct {
	CorrelationID         string                        `json:"correlation_id"`
	ResultCode            string                        `json:"result_code"`
	ResultDesc            string                        `json:"result_desc"`
	SessionFound          bool                          `json:"session_found"`
	DisbursementTriggered bool                          `json:"disbursement_triggered"`
	Disbursement          *gateway.DisbursementResponse `json:"disbursement,omitempty"`
	DisbursementError     string                        `json:"disbursement_error,omitempty"`
}
