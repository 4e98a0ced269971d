package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
	"github.com/wakala/interop/internal/ledger"
	"github.com/wakala/interop/internal/repository"
	"github.com/wakala/interop/internal/saga"
	"github.com/wakala/interop/internal/settlement"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	ledger       *ledger.Ledger
	engine       *settlement.Engine
	sagaSvc      *saga.Service
	transferRepo *repository.TransferRepo
	sagaRepo     *repository.SagaRepo
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses: caller
// errors are 400/404, everything else is a gateway-side failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPhoneNumber),
		errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- GetStatus ---

func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "Simulator Running",
		"ledger": h.ledger.Snapshot(),
	})
}

// --- Transfer ---

type transferRequest struct {
	SourcePaybill      string          `json:"source_paybill"`
	DestinationPaybill string          `json:"destination_paybill"`
	Amount             decimal.Decimal `json:"amount"`
}

func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sourceID := strings.ToUpper(strings.TrimSpace(req.SourcePaybill))
	destID := strings.ToUpper(strings.TrimSpace(req.DestinationPaybill))

	result, err := h.engine.Transfer(sourceID, destID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Journal writes are observability, never a reason to fail a settled
	// transfer.
	if err := h.transferRepo.Insert(result, time.Now()); err != nil {
		log.Printf("[api] journal write failed for transfer %s: %v", result.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":                 true,
		"message":                 "Cross-network paybill transfer completed successfully (simulated).",
		"id":                      result.ID,
		"final_amount_credited":   result.Payout,
		"settlement_fee":          result.Fee,
		"transaction_steps":       result.Steps,
		"current_ledger_snapshot": result.Snapshot,
	})
}

// --- InitiateSTKPush ---

func (h *Handlers) InitiateSTKPush(w http.ResponseWriter, r *http.Request) {
	var req saga.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.sagaSvc.Initiate(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- STKCallback ---

// STKCallback acknowledges every delivery with 200: the collection rail is
// not a caller that can act on our errors, it only needs the receipt.
func (h *Handlers) STKCallback(w http.ResponseWriter, r *http.Request) {
	var cb saga.STKCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"ResultCode": 0,
			"ResultDesc": "Accepted",
			"error":      "invalid callback body: " + err.Error(),
		})
		return
	}

	summary := h.sagaSvc.HandleCallback(r.Context(), cb)

	writeJSON(w, http.StatusOK, map[string]any{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
		"summary":    summary,
	})
}

// --- ListTransfers ---

func (h *Handlers) ListTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TransferFilter{
		Paybill: strings.ToUpper(q.Get("paybill")),
		From:    parseTime(q.Get("from")),
		To:      parseTime(q.Get("to")),
		Page:    parseIntDefault(q.Get("page"), 1),
		Limit:   parseIntDefault(q.Get("limit"), 50),
	}

	records, total, err := h.transferRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transfers": records,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

// --- GetSagaEvents ---

func (h *Handlers) GetSagaEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	events, err := h.sagaRepo.ListByCorrelationID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusNotFound, "no events for correlation id")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"correlation_id": id,
		"events":         events,
	})
}
