package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wakala/interop/internal/domain"
)

// TransferRecord is a journaled settlement: the transfer result plus the
// time it was settled.
type TransferRecord struct {
	ID            string                `json:"id"`
	SourceID      string                `json:"source_paybill"`
	DestinationID string                `json:"destination_paybill"`
	Amount        decimal.Decimal       `json:"amount"`
	Fee           decimal.Decimal       `json:"settlement_fee"`
	Payout        decimal.Decimal       `json:"final_amount_credited"`
	Steps         []domain.TransferStep `json:"transaction_steps,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

type TransferRepo struct {
	db *sql.DB
}

func NewTransferRepo(db *sql.DB) *TransferRepo {
	return &TransferRepo{db: db}
}

// Insert journals a settled transfer together with its step trace.
func (r *TransferRepo) Insert(res *domain.TransferResult, createdAt time.Time) error {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.Exec(
		`INSERT INTO transfers
		(id, source_paybill, destination_paybill, amount, fee, payout, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		res.ID, res.SourceID, res.DestinationID,
		res.Amount.StringFixed(2), res.Fee.StringFixed(2), res.Payout.StringFixed(2),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	stmt, err := sqlTx.Prepare(
		`INSERT INTO transfer_steps (transfer_id, seq, status, description, details)
		VALUES (?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, step := range res.Steps {
		if _, err := stmt.Exec(res.ID, i+1, string(step.Status), step.Description, step.Details); err != nil {
			return fmt.Errorf("insert step %d: %w", i+1, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *TransferRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transfers").Scan(&count)
	return count, err
}

// GetByID returns one journaled transfer with its ordered steps.
func (r *TransferRepo) GetByID(id string) (*TransferRecord, error) {
	row := r.db.QueryRow(
		"SELECT id, source_paybill, destination_paybill, amount, fee, payout, created_at FROM transfers WHERE id = ?",
		id,
	)
	rec, err := scanTransfer(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		"SELECT status, description, details FROM transfer_steps WHERE transfer_id = ? ORDER BY seq",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step domain.TransferStep
		var status string
		if err := rows.Scan(&status, &step.Description, &step.Details); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Status = domain.StepStatus(status)
		rec.Steps = append(rec.Steps, step)
	}
	return rec, rows.Err()
}

// TransferFilter narrows a journal listing. Paybill matches either side of
// the transfer.
type TransferFilter struct {
	Paybill string
	From    *time.Time
	To      *time.Time
	Page    int
	Limit   int
}

// List returns journaled transfers (without step traces) plus the total
// count matching the filter.
func (r *TransferRepo) List(f TransferFilter) ([]TransferRecord, int, error) {
	where, args := buildTransferWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM transfers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := "SELECT id, source_paybill, destination_paybill, amount, fee, payout, created_at FROM transfers" +
		where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var records []TransferRecord
	for rows.Next() {
		rec, err := scanTransferRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

// --- helpers ---

func buildTransferWhere(f TransferFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Paybill != "" {
		clauses = append(clauses, "(source_paybill = ? OR destination_paybill = ?)")
		args = append(args, f.Paybill, f.Paybill)
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransferRow(s rowScanner) (*TransferRecord, error) {
	var rec TransferRecord
	var amount, fee, payout, createdAt string

	if err := s.Scan(&rec.ID, &rec.SourceID, &rec.DestinationID, &amount, &fee, &payout, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if rec.Fee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse fee: %w", err)
	}
	if rec.Payout, err = decimal.NewFromString(payout); err != nil {
		return nil, fmt.Errorf("parse payout: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

func scanTransfer(row *sql.Row) (*TransferRecord, error) {
	return scanTransferRow(row)
}

func scanTransferRows(rows *sql.Rows) (*TransferRecord, error) {
	return scanTransferRow(rows)
}
