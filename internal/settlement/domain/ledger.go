package settlement

import "time"

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	ExpenseCategoryHOA         = "HOA"
	ExpenseCategoryMaintenance = "MAINTENANCE"
	ExpenseCategoryUtility     = "UTILITY"
	ExpenseCategoryOther       = "OTHER"
)

// LedgerPayment records a rent payment for a property and period. One payment
// is created per billed property per batch run; payments are never mutated by
// the settlement engine after creation.
type LedgerPayment struct {
	ID         string
	PropertyID string
	Amount     float64
	Status     string
	Period     time.Time
	CreatedAt  time.Time
}

// LedgerExpense records a deduction against a property: its HOA fee, a shared
// batch-wide fee attached to the carrier property, or a zero-amount
// informational record carrying a bank-deposit reference.
type LedgerExpense struct {
	ID          string
	PropertyID  string
	Description string
	Amount      float64
	Date        time.Time
	Category    string
	ReceiptRef  string
	CreatedAt   time.Time
}

// MonthlyReportRow is the durable per-property audit row for a settlement
// period. Rows are append-only: rebilling the same property and period adds a
// new row instead of superseding the old one.
type MonthlyReportRow struct {
	ID              string
	PropertyID      string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	ReportDate      time.Time
	TotalRent       float64
	TotalHOA        float64
	TotalDeductions float64
	Payout          float64
	CreatedAt       time.Time
}
