package main

import (
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/api"
	"github.com/wakala/interop/internal/config"
	"github.com/wakala/interop/internal/domain"
	"github.com/wakala/interop/internal/gateway"
	"github.com/wakala/interop/internal/ledger"
	"github.com/wakala/interop/internal/repository"
	"github.com/wakala/interop/internal/saga"
	"github.com/wakala/interop/internal/session"
	"github.com/wakala/interop/internal/settlement"
)

const intermediaryID = "INTERMEDIARY_ACCOUNT"

func main() {
	cfg := config.Load()

	log.Printf("Initializing journal database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	transferRepo := repository.NewTransferRepo(db)
	sagaRepo := repository.NewSagaRepo(db)

	// Seed the simulated ledger.
	l := ledger.New(seedAccounts())

	// Create services.
	engine := settlement.NewEngine(l, intermediaryID, cfg.FeeRate)
	store := session.NewStore(cfg.SessionTTL)
	mpesa := gateway.NewMpesaClient(cfg)
	airtel := gateway.NewAirtelClient(cfg)
	sagaSvc := saga.NewService(mpesa, saga.NewDisburser(airtel), store, sagaRepo)

	// Create router.
	router := api.NewRouter(l, engine, sagaSvc, transferRepo, sagaRepo)

	log.Printf("Wakala Paybill Interoperability Simulator")
	log.Printf("Settlement fee rate: %s", cfg.FeeRate.String())
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  GET    /")
	log.Printf("  POST   /transfer")
	log.Printf("  GET    /transfers")
	log.Printf("  POST   /mpesa/stkpush/initiate")
	log.Printf("  POST   /mpesa/stkpush/callback")
	log.Printf("  GET    /stkpush/sessions/{id}/events")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// seedAccounts is the fixed ledger the simulator starts with: two paybills
// on each rail plus the intermediary float.
func seedAccounts() []domain.Account {
	return []domain.Account{
		{ID: "MPESA_1001", Name: "M-Pesa Agent 1", Balance: decimal.NewFromInt(500000), Network: domain.NetworkMpesa},
		{ID: "MPESA_1002", Name: "M-Pesa Agent 2", Balance: decimal.NewFromInt(120000), Network: domain.NetworkMpesa},
		{ID: "AIRTEL_2001", Name: "Airtel Agent 1", Balance: decimal.NewFromInt(50000), Network: domain.NetworkAirtel},
		{ID: "AIRTEL_2002", Name: "Airtel Agent 2", Balance: decimal.NewFromInt(80000), Network: domain.NetworkAirtel},
		{ID: intermediaryID, Name: "Float balance of Intermediary", Balance: decimal.NewFromInt(1000000), Network: domain.NetworkIntermediary},
	}
}
