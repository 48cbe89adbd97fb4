package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	settlement "rentroll-cloud/internal/settlement/domain"
)

// LedgerRepository persists payments, expenses and monthly report rows.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreatePayment inserts one ledger payment.
func (r *LedgerRepository) CreatePayment(ctx context.Context, payment *settlement.LedgerPayment) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if payment == nil {
		return errors.New("ledger repo: nil payment")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_payments (id, property_id, amount, status, period, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		payment.ID, payment.PropertyID, payment.Amount, payment.Status, payment.Period, payment.CreatedAt)
	return err
}

// CreateExpense inserts one ledger expense.
func (r *LedgerRepository) CreateExpense(ctx context.Context, expense *settlement.LedgerExpense) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if expense == nil {
		return errors.New("ledger repo: nil expense")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	var receipt sql.NullString
	if expense.ReceiptRef != "" {
		receipt = sql.NullString{String: expense.ReceiptRef, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_expenses (id, property_id, description, amount, date, category, receipt_ref, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		expense.ID, expense.PropertyID, expense.Description, expense.Amount, expense.Date,
		expense.Category, receipt, expense.CreatedAt)
	return err
}

// CreateReportRows inserts all rows in one transaction.
func (r *LedgerRepository) CreateReportRows(ctx context.Context, rows []settlement.MonthlyReportRow) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
INSERT INTO monthly_reports (
	id, property_id, period_start, period_end, report_date,
	total_rent, total_hoa, total_deductions, payout, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			row.ID, row.PropertyID, row.PeriodStart, row.PeriodEnd, row.ReportDate,
			row.TotalRent, row.TotalHOA, row.TotalDeductions, row.Payout, row.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ListPayments returns payments for a property, newest first.
func (r *LedgerRepository) ListPayments(ctx context.Context, propertyID string, limit int) ([]settlement.LedgerPayment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, property_id, amount, status, period, created_at
FROM ledger_payments
WHERE property_id = $1
ORDER BY period DESC, created_at DESC
LIMIT $2`, propertyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []settlement.LedgerPayment
	for rows.Next() {
		var payment settlement.LedgerPayment
		if err := rows.Scan(&payment.ID, &payment.PropertyID, &payment.Amount, &payment.Status, &payment.Period, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payment.Period = payment.Period.UTC()
		payment.CreatedAt = payment.CreatedAt.UTC()
		result = append(result, payment)
	}
	return result, rows.Err()
}

// ListExpenses returns expenses for a property, newest first.
func (r *LedgerRepository) ListExpenses(ctx context.Context, propertyID string, limit int) ([]settlement.LedgerExpense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, property_id, description, amount, date, category, receipt_ref, created_at
FROM ledger_expenses
WHERE property_id = $1
ORDER BY date DESC, created_at DESC
LIMIT $2`, propertyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []settlement.LedgerExpense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, expense)
	}
	return result, rows.Err()
}

// ListReports returns the report rows for a period, ordered by property.
func (r *LedgerRepository) ListReports(ctx context.Context, periodStart, periodEnd time.Time) ([]settlement.MonthlyReportRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, property_id, period_start, period_end, report_date,
	total_rent, total_hoa, total_deductions, payout, created_at
FROM monthly_reports
WHERE period_start >= $1 AND period_end <= $2
ORDER BY property_id ASC, created_at ASC`, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []settlement.MonthlyReportRow
	for rows.Next() {
		var row settlement.MonthlyReportRow
		if err := rows.Scan(
			&row.ID, &row.PropertyID, &row.PeriodStart, &row.PeriodEnd, &row.ReportDate,
			&row.TotalRent, &row.TotalHOA, &row.TotalDeductions, &row.Payout, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		row.PeriodStart = row.PeriodStart.UTC()
		row.PeriodEnd = row.PeriodEnd.UTC()
		row.ReportDate = row.ReportDate.UTC()
		row.CreatedAt = row.CreatedAt.UTC()
		result = append(result, row)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (settlement.LedgerExpense, error) {
	var expense settlement.LedgerExpense
	var receipt sql.NullString
	err := row.Scan(&expense.ID, &expense.PropertyID, &expense.Description, &expense.Amount,
		&expense.Date, &expense.Category, &receipt, &expense.CreatedAt)
	if err != nil {
		return settlement.LedgerExpense{}, err
	}
	if receipt.Valid {
		expense.ReceiptRef = receipt.String
	}
	expense.Date = expense.Date.UTC()
	expense.CreatedAt = expense.CreatedAt.UTC()
	return expense, nil
}
