package settlement

import "context"

// LedgerRepository persists the durable settlement records. CreatePayment and
// CreateExpense are independent writes; CreateReportRows must be atomic:
// either every row in the slice is durably written or none are.
type LedgerRepository interface {
	CreatePayment(ctx context.Context, payment *LedgerPayment) error
	CreateExpense(ctx context.Context, expense *LedgerExpense) error
	CreateReportRows(ctx context.Context, rows []MonthlyReportRow) error
}
