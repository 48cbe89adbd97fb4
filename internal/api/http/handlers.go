package apihttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rentroll-cloud/internal/auth"
	settlement "rentroll-cloud/internal/settlement/domain"
)

const timeLayout = time.RFC3339

// PaymentStore reads and writes ledger payments.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *settlement.LedgerPayment) error
	ListPayments(ctx context.Context, propertyID string, limit int) ([]settlement.LedgerPayment, error)
}

// ExpenseStore reads and writes ledger expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *settlement.LedgerExpense) error
	ListExpenses(ctx context.Context, propertyID string, limit int) ([]settlement.LedgerExpense, error)
}

// ReportSource reads monthly report rows.
type ReportSource interface {
	ListReports(ctx context.Context, periodStart, periodEnd time.Time) ([]settlement.MonthlyReportRow, error)
}

// PaymentsHandler serves ledger payment queries and manual entries.
type PaymentsHandler struct {
	store   PaymentStore
	checker auth.PropertyExistsChecker
}

// NewPaymentsHandler constructs a PaymentsHandler.
func NewPaymentsHandler(store PaymentStore, checker auth.PropertyExistsChecker) *PaymentsHandler {
	return &PaymentsHandler{store: store, checker: checker}
}

type paymentDTO struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	Period     time.Time `json:"period"`
	CreatedAt  time.Time `json:"createdAt"`
}

type createPaymentDTO struct {
	PropertyID string  `json:"propertyId"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	Period     string  `json:"period"`
}

// ServeHTTP handles GET/POST /api/v1/payments.
func (h *PaymentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *PaymentsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	propertyID := r.URL.Query().Get("propertyId")
	if propertyID == "" {
		http.Error(w, "propertyId is required", http.StatusBadRequest)
		return
	}
	if err := ensureProperty(r, h.checker, propertyID); err != nil {
		respondPropertyError(w, err)
		return
	}

	payments, err := h.store.ListPayments(r.Context(), propertyID, parseLimit(r))
	if err != nil {
		http.Error(w, "query payments error", http.StatusInternalServerError)
		return
	}

	dtos := make([]paymentDTO, 0, len(payments))
	for _, payment := range payments {
		dtos = append(dtos, paymentDTO{
			ID:         payment.ID,
			PropertyID: payment.PropertyID,
			Amount:     payment.Amount,
			Status:     payment.Status,
			Period:     payment.Period,
			CreatedAt:  payment.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}

func (h *PaymentsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var dto createPaymentDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if dto.PropertyID == "" {
		http.Error(w, "propertyId is required", http.StatusBadRequest)
		return
	}
	if err := ensureProperty(r, h.checker, dto.PropertyID); err != nil {
		respondPropertyError(w, err)
		return
	}

	status := dto.Status
	if status == "" {
		status = settlement.PaymentStatusPending
	}
	if status != settlement.PaymentStatusPending && status != settlement.PaymentStatusPaid {
		http.Error(w, "status must be PENDING or PAID", http.StatusBadRequest)
		return
	}

	period := time.Now().UTC()
	if dto.Period != "" {
		period, err = settlement.NormalizeDate(dto.Period)
		if err != nil {
			http.Error(w, "period: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	payment := &settlement.LedgerPayment{
		ID:         uuid.NewString(),
		PropertyID: dto.PropertyID,
		Amount:     dto.Amount,
		Status:     status,
		Period:     period,
	}
	if err := h.store.CreatePayment(r.Context(), payment); err != nil {
		http.Error(w, "create payment error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": payment.ID})
}

// ExpensesHandler serves ledger expense queries and manual entries.
type ExpensesHandler struct {
	store   ExpenseStore
	checker auth.PropertyExistsChecker
}

// NewExpensesHandler constructs an ExpensesHandler.
func NewExpensesHandler(store ExpenseStore, checker auth.PropertyExistsChecker) *ExpensesHandler {
	return &ExpensesHandler{store: store, checker: checker}
}

type expenseDTO struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"propertyId"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	ReceiptRef  string    `json:"receiptRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type createExpenseDTO struct {
	PropertyID  string  `json:"propertyId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	ReceiptRef  string  `json:"receiptRef"`
}

// ServeHTTP handles GET/POST /api/v1/expenses.
func (h *ExpensesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *ExpensesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	propertyID := r.URL.Query().Get("propertyId")
	if propertyID == "" {
		http.Error(w, "propertyId is required", http.StatusBadRequest)
		return
	}
	if err := ensureProperty(r, h.checker, propertyID); err != nil {
		respondPropertyError(w, err)
		return
	}

	expenses, err := h.store.ListExpenses(r.Context(), propertyID, parseLimit(r))
	if err != nil {
		http.Error(w, "query expenses error", http.StatusInternalServerError)
		return
	}

	dtos := make([]expenseDTO, 0, len(expenses))
	for _, expense := range expenses {
		dtos = append(dtos, expenseDTO{
			ID:          expense.ID,
			PropertyID:  expense.PropertyID,
			Description: expense.Description,
			Amount:      expense.Amount,
			Date:        expense.Date,
			Category:    expense.Category,
			ReceiptRef:  expense.ReceiptRef,
			CreatedAt:   expense.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}

func (h *ExpensesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var dto createExpenseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if dto.PropertyID == "" {
		http.Error(w, "propertyId is required", http.StatusBadRequest)
		return
	}
	if dto.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}
	if err := ensureProperty(r, h.checker, dto.PropertyID); err != nil {
		respondPropertyError(w, err)
		return
	}

	category := dto.Category
	switch category {
	case settlement.ExpenseCategoryHOA, settlement.ExpenseCategoryMaintenance,
		settlement.ExpenseCategoryUtility, settlement.ExpenseCategoryOther:
	case "":
		category = settlement.ExpenseCategoryOther
	default:
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}

	date := time.Now().UTC()
	if dto.Date != "" {
		date, err = settlement.NormalizeDate(dto.Date)
		if err != nil {
			http.Error(w, "date: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	expense := &settlement.LedgerExpense{
		ID:          uuid.NewString(),
		PropertyID:  dto.PropertyID,
		Description: dto.Description,
		Amount:      dto.Amount,
		Date:        date,
		Category:    category,
		ReceiptRef:  dto.ReceiptRef,
	}
	if err := h.store.CreateExpense(r.Context(), expense); err != nil {
		http.Error(w, "create expense error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": expense.ID})
}

// ExportReportsCSVHandler serves monthly report CSV exports.
type ExportReportsCSVHandler struct {
	source ReportSource
}

// NewExportReportsCSVHandler constructs a ExportReportsCSVHandler.
func NewExportReportsCSVHandler(source ReportSource) *ExportReportsCSVHandler {
	return &ExportReportsCSVHandler{source: source}
}

// ServeHTTP handles GET /api/v1/exports/reports.csv.
func (h *ExportReportsCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.source == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	rows, err := h.source.ListReports(r.Context(), from, to)
	if err != nil {
		http.Error(w, "query reports error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id",
		"property_id",
		"period_start",
		"period_end",
		"report_date",
		"total_rent",
		"total_hoa",
		"total_deductions",
		"payout",
		"created_at",
	})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.ID,
			row.PropertyID,
			row.PeriodStart.Format(timeLayout),
			row.PeriodEnd.Format(timeLayout),
			row.ReportDate.Format(timeLayout),
			formatFloat(row.TotalRent),
			formatFloat(row.TotalHOA),
			formatFloat(row.TotalDeductions),
			formatFloat(row.Payout),
			formatTime(row.CreatedAt),
		})
	}
	writer.Flush()
}

func ensureProperty(r *http.Request, checker auth.PropertyExistsChecker, propertyID string) error {
	if checker == nil || propertyID == "" {
		return nil
	}
	return checker.EnsurePropertyExists(r.Context(), propertyID)
}

func respondPropertyError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "property check failed", http.StatusInternalServerError)
}

func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := settlement.NormalizeDate(value)
	if err != nil {
		return time.Time{}, errors.New(key + ": " + err.Error())
	}
	return parsed, nil
}

func parseLimit(r *http.Request) int {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return 0
	}
	limit, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return limit
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
