package settlement

import "time"

// ExceptionCase bills a property for a partial period at caller-computed
// prorated figures. The engine recomputes the proration server-side and
// requires the two to agree.
type ExceptionCase struct {
	PropertyID string
	StartDate  time.Time
	EndDate    time.Time
	Rent       float64
	HOA        float64
}

// BatchRequest is a fully normalized settlement batch: all date strings have
// already been parsed into noon-UTC instants by the interface layer.
type BatchRequest struct {
	BatchID        string
	ReportDate     time.Time
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PropertyIDs    []string
	Exceptions     []ExceptionCase
	UtilityCost    float64
	CarrierID      string
	Fees           SharedFeeConfig
	BankDepositRef string
}

// Validate checks the structural invariants of a batch request.
func (r BatchRequest) Validate() error {
	if len(r.PropertyIDs) == 0 && len(r.Exceptions) == 0 {
		return ErrNoBilledProperties
	}
	if r.PeriodStart.IsZero() || r.PeriodEnd.IsZero() || r.PeriodEnd.Before(r.PeriodStart) {
		return ErrInvalidPeriod
	}
	for _, id := range r.PropertyIDs {
		if id == "" {
			return ErrEmptyPropertyID
		}
	}
	for _, exc := range r.Exceptions {
		if exc.PropertyID == "" {
			return ErrEmptyPropertyID
		}
		if exc.StartDate.IsZero() || exc.EndDate.IsZero() {
			return ErrInvalidPeriod
		}
	}
	if r.CarrierID != "" && !r.bills(r.CarrierID) {
		return ErrCarrierNotInBatch
	}
	return nil
}

// bills reports whether the batch bills the given property, as a standard
// property or as an exception case.
func (r BatchRequest) bills(propertyID string) bool {
	for _, id := range r.PropertyIDs {
		if id == propertyID {
			return true
		}
	}
	for _, exc := range r.Exceptions {
		if exc.PropertyID == propertyID {
			return true
		}
	}
	return false
}

// Carrier resolves the property that structurally carries shared-fee records:
// the explicitly requested carrier when present, otherwise the first standard
// property. The fallback is a documented convention, not an assumption; a
// batch with only exceptions has no fallback carrier and Carrier returns "".
func (r BatchRequest) Carrier() string {
	if r.CarrierID != "" {
		return r.CarrierID
	}
	if len(r.PropertyIDs) > 0 {
		return r.PropertyIDs[0]
	}
	return ""
}

const (
	ItemStatusSuccess = "success"
	ItemStatusError   = "error"
)

// Item error codes surfaced in batch outcomes.
const (
	ItemCodePropertyNotFound  = "property_not_found"
	ItemCodePaymentWrite      = "payment_write_failed"
	ItemCodeExpenseWrite      = "expense_write_failed"
	ItemCodeProrationMismatch = "proration_mismatch"
)

// ItemResult is the per-property outcome of a batch run. Exactly one of the
// success fields (PaymentID) or the failure fields (Code, Message) is set.
type ItemResult struct {
	PropertyID   string
	PropertyName string
	Status       string
	PaymentID    string
	Code         string
	Message      string
}

// SuccessItem builds a success outcome carrying the written payment id.
func SuccessItem(propertyID, propertyName, paymentID string) ItemResult {
	return ItemResult{
		PropertyID:   propertyID,
		PropertyName: propertyName,
		Status:       ItemStatusSuccess,
		PaymentID:    paymentID,
	}
}

// FailedItem builds a failure outcome with an error code and message.
func FailedItem(propertyID, propertyName, code, message string) ItemResult {
	return ItemResult{
		PropertyID:   propertyID,
		PropertyName: propertyName,
		Status:       ItemStatusError,
		Code:         code,
		Message:      message,
	}
}

// Stage statuses for the non-per-property phases of a batch run.
const (
	StageOK      = "ok"
	StageError   = "error"
	StageSkipped = "skipped"
)

// StageStatus describes the outcome of one batch phase that is not attributed
// to a single property: the shared-fee writes and the report-row transaction.
type StageStatus struct {
	Status  string
	Message string
}

// BatchOutcome is the full result of a batch run. Success reflects the
// per-property phases only; stage failures are reported alongside rather than
// flipping it, preserving the documented best-effort split.
type BatchOutcome struct {
	Success    bool
	Results    []ItemResult
	SharedFees StageStatus
	Reports    StageStatus
}
