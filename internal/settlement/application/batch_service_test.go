package application

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"rentroll-cloud/internal/settlement/infrastructure/memory"

	settlement "rentroll-cloud/internal/settlement/domain"
)

type stubPropertyReader struct {
	properties map[string]BilledProperty
}

func (r *stubPropertyReader) ListByIDs(_ context.Context, ids []string) ([]BilledProperty, error) {
	var result []BilledProperty
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if property, ok := r.properties[id]; ok {
			result = append(result, property)
		}
	}
	return result, nil
}

type stubNotifier struct {
	stages []string
}

func (n *stubNotifier) NotifyStageFailure(_ context.Context, _, stage, _ string) {
	n.stages = append(n.stages, stage)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var (
	periodStart = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)
	reportDate  = time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
)

func newTestService(t *testing.T, repo *memory.LedgerRepository, reader PropertyReader, notifier OperatorNotifier) *BatchService {
	t.Helper()
	logger := log.New(os.Stdout, "", 0)
	service, err := NewBatchService(repo, reader, settlement.FeePolicy{CleanupAmount: 100_000}, notifier, logger, fixedClock{now: reportDate})
	if err != nil {
		t.Fatalf("new batch service: %v", err)
	}
	return service
}

func defaultReader() *stubPropertyReader {
	return &stubPropertyReader{properties: map[string]BilledProperty{
		"p1": {ID: "p1", Name: "Elm House", MonthlyRent: 1_000_000},
		"p2": {ID: "p2", Name: "Oak Flat", MonthlyRent: 900_000},
	}}
}

func TestBatchService_StandardRun(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		BatchID:     "batch-1",
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PropertyIDs: []string{"p1", "p2"},
		UtilityCost: 70_000,
		Fees:        settlement.SharedFeeConfig{Cleanup: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Success {
		t.Fatal("expected success")
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(outcome.Results))
	}
	for _, item := range outcome.Results {
		if item.Status != settlement.ItemStatusSuccess {
			t.Fatalf("item %s failed: %s", item.PropertyID, item.Message)
		}
		if item.PaymentID == "" {
			t.Fatalf("item %s missing payment id", item.PropertyID)
		}
	}

	if len(repo.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(repo.Payments))
	}
	for _, payment := range repo.Payments {
		if payment.Status != settlement.PaymentStatusPaid {
			t.Fatalf("expected PAID, got %s", payment.Status)
		}
		if !payment.Period.Equal(reportDate) {
			t.Fatalf("payment period mismatch: %v", payment.Period)
		}
	}

	hoa1 := repo.ExpensesFor("p1")
	if len(hoa1) != 2 {
		t.Fatalf("expected hoa + cleanup on carrier, got %d expenses", len(hoa1))
	}
	if hoa1[0].Amount != 93_000 || hoa1[0].Category != settlement.ExpenseCategoryHOA {
		t.Fatalf("carrier hoa expense mismatch: %+v", hoa1[0])
	}
	if hoa1[1].Description != "Shared cleanup service" || hoa1[1].Amount != 100_000 {
		t.Fatalf("cleanup expense mismatch: %+v", hoa1[1])
	}
	hoa2 := repo.ExpensesFor("p2")
	if len(hoa2) != 1 || hoa2[0].Amount != 83_000 {
		t.Fatalf("p2 hoa expense mismatch: %+v", hoa2)
	}

	if outcome.SharedFees.Status != settlement.StageOK {
		t.Fatalf("shared fees stage: %+v", outcome.SharedFees)
	}
	if outcome.Reports.Status != settlement.StageOK {
		t.Fatalf("reports stage: %+v", outcome.Reports)
	}

	carrier, ok := repo.ReportFor("p1")
	if !ok {
		t.Fatal("missing carrier report row")
	}
	if carrier.TotalDeductions != 100_000 {
		t.Fatalf("expected carrier deductions 100000, got %v", carrier.TotalDeductions)
	}
	if carrier.Payout != 807_000 {
		t.Fatalf("expected carrier payout 807000, got %v", carrier.Payout)
	}
	other, _ := repo.ReportFor("p2")
	if other.TotalDeductions != 0 || other.Payout != 817_000 {
		t.Fatalf("non-carrier report mismatch: %+v", other)
	}
}

func TestBatchService_ExceptionRecompute(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	excStart := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	excEnd := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		UtilityCost: 70_000,
		Exceptions: []settlement.ExceptionCase{{
			PropertyID: "p2",
			StartDate:  excStart,
			EndDate:    excEnd,
			Rent:       450_000,
			HOA:        41_500,
		}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Results[0].Status != settlement.ItemStatusSuccess {
		t.Fatalf("exception item failed: %+v", outcome.Results[0])
	}
	if len(repo.Payments) != 1 || repo.Payments[0].Amount != 450_000 {
		t.Fatalf("exception payment mismatch: %+v", repo.Payments)
	}
	expenses := repo.ExpensesFor("p2")
	if len(expenses) != 1 || expenses[0].Amount != 41_500 {
		t.Fatalf("exception hoa mismatch: %+v", expenses)
	}
	row, ok := repo.ReportFor("p2")
	if !ok {
		t.Fatal("missing exception report row")
	}
	if !row.PeriodStart.Equal(excStart) || !row.PeriodEnd.Equal(excEnd) {
		t.Fatalf("exception report period mismatch: %+v", row)
	}
	if row.TotalRent != 450_000 || row.Payout != 408_500 {
		t.Fatalf("exception report figures mismatch: %+v", row)
	}
}

func TestBatchService_ProrationMismatch(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		UtilityCost: 70_000,
		Exceptions: []settlement.ExceptionCase{{
			PropertyID: "p2",
			StartDate:  periodStart,
			EndDate:    time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
			Rent:       999_999,
			HOA:        41_500,
		}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	item := outcome.Results[0]
	if item.Status != settlement.ItemStatusError || item.Code != settlement.ItemCodeProrationMismatch {
		t.Fatalf("expected proration mismatch, got %+v", item)
	}
	if len(repo.Payments) != 0 {
		t.Fatal("mismatching exception must not write a payment")
	}
	if len(repo.Reports) != 0 {
		t.Fatal("mismatching exception must not produce a report row")
	}
}

func TestBatchService_UnknownProperty(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PropertyIDs: []string{"p1", "ghost"},
		UtilityCost: 70_000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Results[0].Status != settlement.ItemStatusSuccess {
		t.Fatalf("known property failed: %+v", outcome.Results[0])
	}
	ghost := outcome.Results[1]
	if ghost.Status != settlement.ItemStatusError || ghost.Code != settlement.ItemCodePropertyNotFound {
		t.Fatalf("expected property_not_found, got %+v", ghost)
	}
	if len(repo.Reports) != 1 {
		t.Fatalf("unknown property must not get a report row, got %d", len(repo.Reports))
	}
}

func TestBatchService_PaymentWriteFailure(t *testing.T) {
	repo := memory.NewLedgerRepository()
	repo.FailPayments = true
	service := newTestService(t, repo, defaultReader(), nil)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PropertyIDs: []string{"p1"},
		UtilityCost: 70_000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	item := outcome.Results[0]
	if item.Status != settlement.ItemStatusError || item.Code != settlement.ItemCodePaymentWrite {
		t.Fatalf("expected payment write failure, got %+v", item)
	}
	// The figures are still recomputed and reported even though the
	// payment write failed.
	if len(repo.Reports) != 1 {
		t.Fatalf("expected report row despite payment failure, got %d", len(repo.Reports))
	}
	if !outcome.Success {
		t.Fatal("per-item failures must not flip batch success")
	}
}

func TestBatchService_ReportStageFailure(t *testing.T) {
	repo := memory.NewLedgerRepository()
	repo.FailReports = true
	notifier := &stubNotifier{}
	service := newTestService(t, repo, defaultReader(), notifier)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PropertyIDs: []string{"p1"},
		UtilityCost: 70_000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reports.Status != settlement.StageError {
		t.Fatalf("expected report stage error, got %+v", outcome.Reports)
	}
	if !outcome.Success {
		t.Fatal("report stage failure must not flip batch success")
	}
	if len(notifier.stages) != 1 || notifier.stages[0] != "reports" {
		t.Fatalf("expected reports notification, got %v", notifier.stages)
	}
}

func TestBatchService_NoCarrierForFees(t *testing.T) {
	repo := memory.NewLedgerRepository()
	notifier := &stubNotifier{}
	service := newTestService(t, repo, defaultReader(), notifier)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		UtilityCost: 70_000,
		Exceptions: []settlement.ExceptionCase{{
			PropertyID: "p2",
			StartDate:  periodStart,
			EndDate:    time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
			Rent:       450_000,
			HOA:        41_500,
		}},
		Fees: settlement.SharedFeeConfig{Cleanup: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.SharedFees.Status != settlement.StageError {
		t.Fatalf("expected shared fee stage error, got %+v", outcome.SharedFees)
	}
	if len(notifier.stages) != 1 || notifier.stages[0] != "shared_fees" {
		t.Fatalf("expected shared_fees notification, got %v", notifier.stages)
	}
	expenses := repo.ExpensesFor("p2")
	if len(expenses) != 1 {
		t.Fatalf("only the hoa expense should exist, got %+v", expenses)
	}
}

func TestBatchService_ExplicitCarrier(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	outcome, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PropertyIDs: []string{"p1", "p2"},
		UtilityCost: 70_000,
		CarrierID:   "p2",
		Fees:        settlement.SharedFeeConfig{Gas: &settlement.GasFee{Amount: 30_000}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.SharedFees.Status != settlement.StageOK {
		t.Fatalf("shared fees stage: %+v", outcome.SharedFees)
	}
	carrier, _ := repo.ReportFor("p2")
	if carrier.TotalDeductions != 30_000 {
		t.Fatalf("explicit carrier must take the deduction, got %+v", carrier)
	}
	other, _ := repo.ReportFor("p1")
	if other.TotalDeductions != 0 {
		t.Fatalf("non-carrier must not be deducted, got %+v", other)
	}
}

func TestBatchService_UnbilledCarrierRejected(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	// A carrier outside the batch would take the shared-fee expenses while
	// no report row carries the deduction; the request is rejected outright.
	_, err := service.Run(context.Background(), settlement.BatchRequest{
		ReportDate:  reportDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PropertyIDs: []string{"p1", "p2"},
		UtilityCost: 70_000,
		CarrierID:   "ghost",
		Fees:        settlement.SharedFeeConfig{Cleanup: true},
	})
	if err != settlement.ErrCarrierNotInBatch {
		t.Fatalf("expected ErrCarrierNotInBatch, got %v", err)
	}
	if len(repo.Payments) != 0 || len(repo.Expenses) != 0 || len(repo.Reports) != 0 {
		t.Fatal("rejected batch must not write anything")
	}
}

func TestBatchService_ValidationError(t *testing.T) {
	repo := memory.NewLedgerRepository()
	service := newTestService(t, repo, defaultReader(), nil)

	_, err := service.Run(context.Background(), settlement.BatchRequest{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != settlement.ErrNoBilledProperties {
		t.Fatalf("expected ErrNoBilledProperties, got %v", err)
	}
}
