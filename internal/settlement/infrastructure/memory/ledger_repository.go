package memory

import (
	"context"
	"errors"
	"sync"

	settlement "rentroll-cloud/internal/settlement/domain"
)

// LedgerRepository is an in-memory mirror of the postgres repository used by
// unit tests. The Fail* switches force the corresponding write to error.
type LedgerRepository struct {
	mu sync.Mutex

	Payments []settlement.LedgerPayment
	Expenses []settlement.LedgerExpense
	Reports  []settlement.MonthlyReportRow

	FailPayments bool
	FailExpenses bool
	FailReports  bool
}

// NewLedgerRepository constructs an empty repository.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

// CreatePayment stores a payment.
func (r *LedgerRepository) CreatePayment(_ context.Context, payment *settlement.LedgerPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailPayments {
		return errors.New("memory ledger: payment write refused")
	}
	if payment == nil {
		return errors.New("memory ledger: nil payment")
	}
	r.Payments = append(r.Payments, *payment)
	return nil
}

// CreateExpense stores an expense.
func (r *LedgerRepository) CreateExpense(_ context.Context, expense *settlement.LedgerExpense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailExpenses {
		return errors.New("memory ledger: expense write refused")
	}
	if expense == nil {
		return errors.New("memory ledger: nil expense")
	}
	r.Expenses = append(r.Expenses, *expense)
	return nil
}

// CreateReportRows stores all rows or none.
func (r *LedgerRepository) CreateReportRows(_ context.Context, rows []settlement.MonthlyReportRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReports {
		return errors.New("memory ledger: report write refused")
	}
	r.Reports = append(r.Reports, rows...)
	return nil
}

// ExpensesFor returns the stored expenses for one property.
func (r *LedgerRepository) ExpensesFor(propertyID string) []settlement.LedgerExpense {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []settlement.LedgerExpense
	for _, expense := range r.Expenses {
		if expense.PropertyID == propertyID {
			result = append(result, expense)
		}
	}
	return result
}

// ReportFor returns the stored report row for one property, if any.
func (r *LedgerRepository) ReportFor(propertyID string) (settlement.MonthlyReportRow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.Reports {
		if row.PropertyID == propertyID {
			return row, true
		}
	}
	return settlement.MonthlyReportRow{}, false
}
