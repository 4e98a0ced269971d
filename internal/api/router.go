package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wakala/interop/internal/ledger"
	"github.com/wakala/interop/internal/repository"
	"github.com/wakala/interop/internal/saga"
	"github.com/wakala/interop/internal/settlement"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	l *ledger.Ledger,
	engine *settlement.Engine,
	sagaSvc *saga.Service,
	transferRepo *repository.TransferRepo,
	sagaRepo *repository.SagaRepo,
) http.Handler {
	h := &Handlers{
		ledger:       l,
		engine:       engine,
		sagaSvc:      sagaSvc,
		transferRepo: transferRepo,
		sagaRepo:     sagaRepo,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(allowAllCORS)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	// Ledger and settlement.
	r.Get("/", h.GetStatus)
	r.Post("/transfer", h.Transfer)
	r.Get("/transfers", h.ListTransfers)

	// Interoperability saga.
	r.Post("/mpesa/stkpush/initiate", h.InitiateSTKPush)
	r.Post("/mpesa/stkpush/callback", h.STKCallback)
	r.Get("/stkpush/sessions/{id}/events", h.GetSagaEvents)

	return r
}
