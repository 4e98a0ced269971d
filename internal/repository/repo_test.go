package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wakala/interop/internal/domain"
)

func newTestRepos(t *testing.T) (*TransferRepo, *SagaRepo) {
	t.Helper()

	db, err := InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTransferRepo(db), NewSagaRepo(db)
}

func sampleTransfer(id, source, dest string) *domain.TransferResult {
	return &domain.TransferResult{
		ID:            id,
		SourceID:      source,
		DestinationID: dest,
		Amount:        decimal.NewFromInt(100),
		Fee:           decimal.NewFromInt(1),
		Payout:        decimal.NewFromInt(99),
		Steps: []domain.TransferStep{
			{Status: domain.StepInitiated, Description: "step 1", Details: "d1"},
			{Status: domain.StepSettled, Description: "step 2", Details: "d2"},
			{Status: domain.StepCompleted, Description: "step 3", Details: "d3"},
		},
	}
}

func TestTransferRepo_InsertAndGet(t *testing.T) {
	transfers, _ := newTestRepos(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, transfers.Insert(sampleTransfer("T1", "MPESA_1001", "AIRTEL_2001"), now))

	count, err := transfers.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec, err := transfers.GetByID("T1")
	require.NoError(t, err)
	assert.Equal(t, "MPESA_1001", rec.SourceID)
	assert.Equal(t, "AIRTEL_2001", rec.DestinationID)
	assert.Equal(t, "100.00", rec.Amount.StringFixed(2))
	assert.Equal(t, "1.00", rec.Fee.StringFixed(2))
	assert.Equal(t, "99.00", rec.Payout.StringFixed(2))
	assert.True(t, rec.CreatedAt.Equal(now))

	require.Len(t, rec.Steps, 3)
	assert.Equal(t, domain.StepInitiated, rec.Steps[0].Status)
	assert.Equal(t, domain.StepCompleted, rec.Steps[2].Status)
}

func TestTransferRepo_ListFiltersByPaybill(t *testing.T) {
	transfers, _ := newTestRepos(t)

	now := time.Now().UTC()
	require.NoError(t, transfers.Insert(sampleTransfer("T1", "MPESA_1001", "AIRTEL_2001"), now))
	require.NoError(t, transfers.Insert(sampleTransfer("T2", "MPESA_1002", "AIRTEL_2002"), now))
	require.NoError(t, transfers.Insert(sampleTransfer("T3", "AIRTEL_2001", "MPESA_1002"), now))

	// Matches either side of the transfer.
	records, total, err := transfers.List(TransferFilter{Paybill: "AIRTEL_2001"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, records, 2)

	records, total, err = transfers.List(TransferFilter{Paybill: "MPESA_1002"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, records, 2)

	_, total, err = transfers.List(TransferFilter{Paybill: "UNKNOWN"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestTransferRepo_ListPaginates(t *testing.T) {
	transfers, _ := newTestRepos(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		id := string(rune('A' + i))
		require.NoError(t, transfers.Insert(sampleTransfer("T"+id, "MPESA_1001", "AIRTEL_2001"),
			base.Add(time.Duration(i)*time.Minute)))
	}

	records, total, err := transfers.List(TransferFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "TE", records[0].ID)

	records, _, err = transfers.List(TransferFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TA", records[0].ID)
}

func TestSagaRepo_RecordAndList(t *testing.T) {
	_, sagas := newTestRepos(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, sagas.RecordSagaEvent(domain.SagaEvent{
		ID:            "E1",
		CorrelationID: "ws_CO_1",
		Kind:          domain.SagaInitiated,
		ResultCode:    "0",
		Amount:        decimal.NewFromInt(50),
		CreatedAt:     base,
	}))
	require.NoError(t, sagas.RecordSagaEvent(domain.SagaEvent{
		ID:            "E2",
		CorrelationID: "ws_CO_1",
		Kind:          domain.SagaCallback,
		ResultCode:    "0",
		ResultDesc:    "processed",
		Disbursed:     true,
		Amount:        decimal.NewFromInt(50),
		CreatedAt:     base.Add(time.Minute),
	}))
	require.NoError(t, sagas.RecordSagaEvent(domain.SagaEvent{
		ID:            "E3",
		CorrelationID: "ws_CO_other",
		Kind:          domain.SagaInitiated,
		Amount:        decimal.NewFromInt(10),
		CreatedAt:     base,
	}))

	count, err := sagas.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	events, err := sagas.ListByCorrelationID("ws_CO_1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.SagaInitiated, events[0].Kind)
	assert.Equal(t, domain.SagaCallback, events[1].Kind)
	assert.True(t, events[1].Disbursed)
	assert.Equal(t, "50.00", events[1].Amount.StringFixed(2))

	events, err = sagas.ListByCorrelationID("never-seen")
	require.NoError(t, err)
	assert.Empty(t, events)
}
