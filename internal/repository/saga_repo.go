package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
)

type SagaRepo struct {
	db *sql.DB
}

func NewSagaRepo(db *sql.DB) *SagaRepo {
	return &SagaRepo{db: db}
}

// RecordSagaEvent journals one saga occurrence. Satisfies saga.Journal.
func (r *SagaRepo) RecordSagaEvent(ev domain.SagaEvent) error {
	_, err := r.db.Exec(
		`INSERT INTO saga_events
		(id, correlation_id, kind, result_code, result_desc, disbursed, amount, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		ev.ID, ev.CorrelationID, string(ev.Kind), ev.ResultCode, ev.ResultDesc,
		boolToInt(ev.Disbursed), ev.Amount.StringFixed(2), ev.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert saga event: %w", err)
	}
	return nil
}

// ListByCorrelationID returns the event trail of one saga, oldest first.
func (r *SagaRepo) ListByCorrelationID(correlationID string) ([]domain.SagaEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, correlation_id, kind, result_code, result_desc, disbursed, amount, created_at
		FROM saga_events WHERE correlation_id = ? ORDER BY created_at, id`,
		correlationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var events []domain.SagaEvent
	for rows.Next() {
		ev, err := scanSagaEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (r *SagaRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM saga_events").Scan(&count)
	return count, err
}

func scanSagaEvent(rows *sql.Rows) (*domain.SagaEvent, error) {
	var ev domain.SagaEvent
	var kind, amount, createdAt string
	var disbursed int
	var resultCode, resultDesc sql.NullString

	if err := rows.Scan(&ev.ID, &ev.CorrelationID, &kind, &resultCode, &resultDesc,
		&disbursed, &amount, &createdAt); err != nil {
		return nil, err
	}

	ev.Kind = domain.SagaEventKind(kind)
	ev.ResultCode = resultCode.String
	ev.ResultDesc = resultDesc.String
	ev.Disbursed = disbursed != 0

	var err error
	if ev.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ev, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
