package saga

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
	"github.com/wakala/interop/internal/gateway"
	"github.com/wakala/interop/internal/msisdn"
)

// Disburser wraps the outbound disbursement capability with the validation
// and normalization the saga needs before money leaves the paybill.
type Disburser struct {
	rail DisbursementGateway
}

// NewDisburser creates a disbursement trigger over the given rail.
func NewDisburser(rail DisbursementGateway) *Disburser {
	return &Disburser{rail: rail}
}

// Disburse validates the session and pays out to its recipient. The
// session's metadata travels with the request reference chain only through
// the rail's narrative; the rail response (or its failure) is surfaced
// unchanged.
func (d *Disburser) Disburse(ctx context.Context, sess domain.PendingSession) (*gateway.DisbursementResponse, error) {
	if sess.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	recipient, err := msisdn.Normalize(sess.RecipientMSISDN)
	if err != nil {
		return nil, err
	}

	return d.rail.PaybillToCustomer(ctx, sess.PaybillID, recipient, sess.Amount, sess.Currency, sess.Country, "")
}
