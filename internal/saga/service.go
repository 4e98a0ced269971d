// Package saga coordinates the two-phase interoperability flow: a
// collection on one rail chained into a disbursement on the other, bridged
// by the pending-session store across the asynchronous callback boundary.
package saga

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
	"github.com/wakala/interop/internal/msisdn"
	"github.com/wakala/interop/internal/session"
)

// Service is the saga orchestrator: phase 1 (Initiate) places the
// collection and stores the disbursement context, phase 2 (HandleCallback)
// consumes the context and triggers the payout.
type Service struct {
	collections CollectionGateway
	disburser   *Disburser
	store       *session.Store
	journal     Journal
}

// NewService wires the saga. journal may be nil.
func NewService(collections CollectionGateway, disburser *Disburser, store *session.Store, journal Journal) *Service {
	return &Service{
		collections: collections,
		disburser:   disburser,
		store:       store,
		journal:     journal,
	}
}

// Initiate starts phase 1: normalize the payer phone, place the collection
// request, and store the disbursement context under the returned
// correlation id. When the rail supplies no correlation id nothing is
// stored and the saga ends here.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	phone, err := msisdn.Normalize(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	resp, err := s.collections.InitiateSTKPush(ctx, phone, req.Amount, req.AccountReference, req.Description)
	if err != nil {
		return nil, fmt.Errorf("collection request: %w", err)
	}

	correlationID := resp.CheckoutRequestID
	if correlationID != "" {
		target := req.Disbursement
		amount := target.Amount
		if amount.LessThanOrEqual(decimal.Zero) {
			amount = req.Amount
		}
		currency := target.Currency
		if currency == "" {
			currency = "KES"
		}
		country := target.Country
		if country == "" {
			country = "KEN"
		}

		s.store.Put(correlationID, domain.PendingSession{
			CorrelationID:   correlationID,
			PaybillID:       target.PaybillID,
			RecipientMSISDN: target.RecipientMSISDN,
			Amount:          amount.Round(2),
			Currency:        currency,
			Country:         country,
			Narrative:       target.Narrative,
			Metadata:        target.Metadata,
			CreatedAt:       time.Now(),
		})

		s.record(domain.SagaEvent{
			ID:            uuid.NewString(),
			CorrelationID: correlationID,
			Kind:          domain.SagaInitiated,
			ResultCode:    resp.ResponseCode,
			ResultDesc:    resp.ResponseDescription,
			Amount:        req.Amount.Round(2),
			CreatedAt:     time.Now(),
		})
	}

	return &InitiateResult{CorrelationID: correlationID, Response: resp}, nil
}

// HandleCallback runs phase 2. The session take is atomic, so a duplicate
// delivery for the same correlation id finds nothing and triggers nothing;
// a failure result code consumes the session without disbursing. A
// disbursement failure here has no caller to report to, so it is logged
// and carried in the summary only.
func (s *Service) HandleCallback(ctx context.Context, cb STKCallback) *CallbackResult {
	inner := cb.Body.StkCallback
	result := &CallbackResult{
		CorrelationID: inner.CheckoutRequestID,
		ResultCode:    inner.ResultCode.String(),
		ResultDesc:    inner.ResultDesc,
	}

	sess, found := s.store.Take(inner.CheckoutRequestID)
	result.SessionFound = found

	if found && cb.Succeeded() {
		sess.Metadata = mergeMetadata(sess.Metadata, inner.CheckoutRequestID, inner.ResultDesc)

		resp, err := s.disburser.Disburse(ctx, sess)
		if err != nil {
			// The session is already consumed; there is no retry path.
			log.Printf("[saga] disbursement failed for %s: %v", inner.CheckoutRequestID, err)
			result.DisbursementError = err.Error()
		} else {
			result.DisbursementTriggered = true
			result.Disbursement = resp
		}
	}

	s.record(domain.SagaEvent{
		ID:            uuid.NewString(),
		CorrelationID: inner.CheckoutRequestID,
		Kind:          domain.SagaCallback,
		ResultCode:    inner.ResultCode.String(),
		ResultDesc:    inner.ResultDesc,
		Disbursed:     result.DisbursementTriggered,
		Amount:        sess.Amount,
		CreatedAt:     time.Now(),
	})

	return result
}

func (s *Service) record(ev domain.SagaEvent) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordSagaEvent(ev); err != nil {
		log.Printf("[saga] journal write failed for %s: %v", ev.CorrelationID, err)
	}
}

// mergeMetadata injects callback provenance into the session metadata so
// the receiving rail can tie the payout back to the collection.
func mergeMetadata(meta map[string]any, correlationID, resultDesc string) map[string]any {
	merged := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		merged[k] = v
	}
	merged["checkout_request_id"] = correlationID
	merged["collection_result"] = resultDesc
	return merged
}
