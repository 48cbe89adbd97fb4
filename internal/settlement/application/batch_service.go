package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rentroll-cloud/internal/observability/metrics"
	settlement "rentroll-cloud/internal/settlement/domain"
)

// BilledProperty is the masterdata slice of a property the engine needs.
type BilledProperty struct {
	ID          string
	Name        string
	MonthlyRent float64
}

// PropertyReader loads billed properties by id list.
type PropertyReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]BilledProperty, error)
}

// OperatorNotifier surfaces non-fatal stage failures to an operator channel.
type OperatorNotifier interface {
	NotifyStageFailure(ctx context.Context, batchID, stage, message string)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// BatchService runs monthly settlement batches: one pass over the standard
// properties, one pass over the exception cases, the shared-fee writes, and
// the final atomic report-row persistence.
type BatchService struct {
	repo       settlement.LedgerRepository
	properties PropertyReader
	policy     settlement.FeePolicy
	notifier   OperatorNotifier
	logger     *log.Logger
	clock      Clock
}

// NewBatchService constructs the service.
func NewBatchService(
	repo settlement.LedgerRepository,
	properties PropertyReader,
	policy settlement.FeePolicy,
	notifier OperatorNotifier,
	logger *log.Logger,
	clock Clock,
) (*BatchService, error) {
	if repo == nil {
		return nil, errors.New("batch service: nil ledger repository")
	}
	if properties == nil {
		return nil, errors.New("batch service: nil property reader")
	}
	if logger == nil {
		return nil, errors.New("batch service: nil logger")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &BatchService{
		repo:       repo,
		properties: properties,
		policy:     policy,
		notifier:   notifier,
		logger:     logger,
		clock:      clock,
	}, nil
}

// reportInput is one recomputed report row waiting for the final transaction.
type reportInput struct {
	propertyID  string
	periodStart time.Time
	periodEnd   time.Time
	rent        float64
	hoa         float64
}

// Run executes a settlement batch. Per-property failures never abort the run:
// each standard property and exception case resolves to its own success or
// error outcome in input order. The shared-fee writes and the report-row
// transaction report their status per stage; a failure there leaves the
// per-property outcomes intact.
func (s *BatchService) Run(ctx context.Context, req settlement.BatchRequest) (settlement.BatchOutcome, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBatchRun(result, time.Since(start))
	}()

	if err := req.Validate(); err != nil {
		result = metrics.ResultError
		return settlement.BatchOutcome{}, err
	}
	if req.ReportDate.IsZero() {
		req.ReportDate = s.clock.Now()
	}

	index, err := s.loadProperties(ctx, req)
	if err != nil {
		result = metrics.ResultError
		return settlement.BatchOutcome{}, err
	}

	var outcome settlement.BatchOutcome
	var reports []reportInput

	for _, propertyID := range req.PropertyIDs {
		item, report := s.processStandard(ctx, req, index, propertyID)
		metrics.IncBatchItem(item.Status)
		outcome.Results = append(outcome.Results, item)
		if report != nil {
			reports = append(reports, *report)
		}
	}

	for _, exc := range req.Exceptions {
		item, report := s.processException(ctx, req, index, exc)
		metrics.IncBatchItem(item.Status)
		outcome.Results = append(outcome.Results, item)
		if report != nil {
			reports = append(reports, *report)
		}
	}

	fees := settlement.BuildSharedFees(req.Fees, s.policy, req.PeriodStart, req.PeriodEnd, req.BankDepositRef)
	carrier := req.Carrier()
	outcome.SharedFees = s.writeSharedFees(ctx, req, carrier, fees)

	outcome.Reports = s.persistReports(ctx, req, reports, carrier, fees.Total)

	outcome.Success = true
	return outcome, nil
}

func (s *BatchService) loadProperties(ctx context.Context, req settlement.BatchRequest) (map[string]BilledProperty, error) {
	ids := make([]string, 0, len(req.PropertyIDs)+len(req.Exceptions))
	ids = append(ids, req.PropertyIDs...)
	for _, exc := range req.Exceptions {
		ids = append(ids, exc.PropertyID)
	}

	listed, err := s.properties.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("batch service: property lookup: %w", err)
	}
	index := make(map[string]BilledProperty, len(listed))
	for _, property := range listed {
		index[property.ID] = property
	}
	return index, nil
}

func (s *BatchService) processStandard(ctx context.Context, req settlement.BatchRequest, index map[string]BilledProperty, propertyID string) (settlement.ItemResult, *reportInput) {
	property, ok := index[propertyID]
	if !ok {
		return settlement.FailedItem(propertyID, "", settlement.ItemCodePropertyNotFound, "property not found"), nil
	}

	alloc := settlement.CalculateStandard(property.MonthlyRent, req.UtilityCost)
	report := &reportInput{
		propertyID:  propertyID,
		periodStart: req.PeriodStart,
		periodEnd:   req.PeriodEnd,
		rent:        alloc.Rent,
		hoa:         alloc.HOA,
	}

	payment := &settlement.LedgerPayment{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		Amount:     alloc.Rent,
		Status:     settlement.PaymentStatusPaid,
		Period:     req.ReportDate,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		s.logger.Printf("batch %s: payment write failed for property %s: %v", req.BatchID, propertyID, err)
		return settlement.FailedItem(propertyID, property.Name, settlement.ItemCodePaymentWrite, err.Error()), report
	}

	// The flat utility cost is never written as an expense: the owner keeps
	// that money. Only the HOA fee is deducted, and only when positive.
	if alloc.HOA > 0 {
		expense := &settlement.LedgerExpense{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			Description: "HOA fee (10%)",
			Amount:      alloc.HOA,
			Date:        req.ReportDate,
			Category:    settlement.ExpenseCategoryHOA,
		}
		if err := s.repo.CreateExpense(ctx, expense); err != nil {
			s.logger.Printf("batch %s: hoa expense write failed for property %s: %v", req.BatchID, propertyID, err)
			return settlement.FailedItem(propertyID, property.Name, settlement.ItemCodeExpenseWrite, err.Error()), report
		}
	}

	return settlement.SuccessItem(propertyID, property.Name, payment.ID), report
}

func (s *BatchService) processException(ctx context.Context, req settlement.BatchRequest, index map[string]BilledProperty, exc settlement.ExceptionCase) (settlement.ItemResult, *reportInput) {
	property, ok := index[exc.PropertyID]
	if !ok {
		return settlement.FailedItem(exc.PropertyID, "", settlement.ItemCodePropertyNotFound, "property not found"), nil
	}

	recomputed := settlement.CalculateProrated(property.MonthlyRent, req.UtilityCost, exc.StartDate, exc.EndDate)
	if recomputed.Rent != exc.Rent || recomputed.HOA != exc.HOA {
		message := fmt.Sprintf("expected rent %.0f hoa %.0f, got rent %.0f hoa %.0f",
			recomputed.Rent, recomputed.HOA, exc.Rent, exc.HOA)
		s.logger.Printf("batch %s: proration mismatch for property %s: %s", req.BatchID, exc.PropertyID, message)
		return settlement.FailedItem(exc.PropertyID, property.Name, settlement.ItemCodeProrationMismatch, message), nil
	}

	report := &reportInput{
		propertyID:  exc.PropertyID,
		periodStart: exc.StartDate,
		periodEnd:   exc.EndDate,
		rent:        exc.Rent,
		hoa:         exc.HOA,
	}

	payment := &settlement.LedgerPayment{
		ID:         uuid.NewString(),
		PropertyID: exc.PropertyID,
		Amount:     exc.Rent,
		Status:     settlement.PaymentStatusPaid,
		Period:     req.ReportDate,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		s.logger.Printf("batch %s: payment write failed for exception %s: %v", req.BatchID, exc.PropertyID, err)
		return settlement.FailedItem(exc.PropertyID, property.Name, settlement.ItemCodePaymentWrite, err.Error()), report
	}

	if exc.HOA > 0 {
		expense := &settlement.LedgerExpense{
			ID:          uuid.NewString(),
			PropertyID:  exc.PropertyID,
			Description: fmt.Sprintf("HOA fee (%s - %s)", exc.StartDate.Format("Jan 2"), exc.EndDate.Format("Jan 2")),
			Amount:      exc.HOA,
			Date:        req.ReportDate,
			Category:    settlement.ExpenseCategoryHOA,
		}
		if err := s.repo.CreateExpense(ctx, expense); err != nil {
			s.logger.Printf("batch %s: hoa expense write failed for exception %s: %v", req.BatchID, exc.PropertyID, err)
			return settlement.FailedItem(exc.PropertyID, property.Name, settlement.ItemCodeExpenseWrite, err.Error()), report
		}
	}

	return settlement.SuccessItem(exc.PropertyID, property.Name, payment.ID), report
}

func (s *BatchService) writeSharedFees(ctx context.Context, req settlement.BatchRequest, carrier string, fees settlement.SharedFees) settlement.StageStatus {
	if len(fees.Entries) == 0 {
		return settlement.StageStatus{Status: settlement.StageSkipped}
	}
	if carrier == "" {
		// Exception-only batch with active fees: there is no property to carry
		// the records. Surfaced as a stage error, never silently dropped.
		s.logger.Printf("batch %s: %v", req.BatchID, settlement.ErrNoCarrierProperty)
		s.notifyStage(ctx, req.BatchID, "shared_fees", settlement.ErrNoCarrierProperty.Error())
		return settlement.StageStatus{Status: settlement.StageError, Message: settlement.ErrNoCarrierProperty.Error()}
	}

	var firstErr error
	for _, entry := range fees.Entries {
		expense := &settlement.LedgerExpense{
			ID:          uuid.NewString(),
			PropertyID:  carrier,
			Description: entry.Description,
			Amount:      entry.Amount,
			Date:        req.ReportDate,
			Category:    entry.Category,
			ReceiptRef:  entry.ReceiptRef,
		}
		if err := s.repo.CreateExpense(ctx, expense); err != nil {
			s.logger.Printf("batch %s: shared fee write failed (%s): %v", req.BatchID, entry.Description, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		s.notifyStage(ctx, req.BatchID, "shared_fees", firstErr.Error())
		return settlement.StageStatus{Status: settlement.StageError, Message: firstErr.Error()}
	}
	return settlement.StageStatus{Status: settlement.StageOK}
}

func (s *BatchService) persistReports(ctx context.Context, req settlement.BatchRequest, inputs []reportInput, carrier string, sharedTotal float64) settlement.StageStatus {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportPersist(result, time.Since(start))
	}()

	if len(inputs) == 0 {
		return settlement.StageStatus{Status: settlement.StageSkipped}
	}

	now := s.clock.Now()
	rows := make([]settlement.MonthlyReportRow, 0, len(inputs))
	for _, input := range inputs {
		deductions := 0.0
		if input.propertyID == carrier {
			deductions = sharedTotal
		}
		rows = append(rows, settlement.MonthlyReportRow{
			ID:              uuid.NewString(),
			PropertyID:      input.propertyID,
			PeriodStart:     input.periodStart,
			PeriodEnd:       input.periodEnd,
			ReportDate:      req.ReportDate,
			TotalRent:       input.rent,
			TotalHOA:        input.hoa,
			TotalDeductions: deductions,
			Payout:          input.rent - input.hoa - deductions,
			CreatedAt:       now,
		})
	}

	if err := s.repo.CreateReportRows(ctx, rows); err != nil {
		result = metrics.ResultError
		s.logger.Printf("batch %s: report rows persist failed: %v", req.BatchID, err)
		s.notifyStage(ctx, req.BatchID, "reports", err.Error())
		return settlement.StageStatus{Status: settlement.StageError, Message: err.Error()}
	}
	return settlement.StageStatus{Status: settlement.StageOK}
}

func (s *BatchService) notifyStage(ctx context.Context, batchID, stage, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyStageFailure(ctx, batchID, stage, message)
}
