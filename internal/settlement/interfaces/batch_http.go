package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rentroll-cloud/internal/audit"
	"rentroll-cloud/internal/auth"
	settlementapp "rentroll-cloud/internal/settlement/application"
	settlement "rentroll-cloud/internal/settlement/domain"
)

// BatchHandler provides the settlement batch endpoint.
type BatchHandler struct {
	service            *settlementapp.BatchService
	auditLogger        audit.Logger
	defaultUtilityCost float64
}

// NewBatchHandler constructs a handler.
func NewBatchHandler(service *settlementapp.BatchService, auditLogger audit.Logger, defaultUtilityCost float64) (*BatchHandler, error) {
	if service == nil {
		return nil, errors.New("batch handler: nil service")
	}
	return &BatchHandler{service: service, auditLogger: auditLogger, defaultUtilityCost: defaultUtilityCost}, nil
}

type batchRequestDTO struct {
	BatchID           string           `json:"batchId"`
	PropertyIDs       []string         `json:"propertyIds"`
	ReportDate        string           `json:"reportDate"`
	PeriodStartDate   string           `json:"periodStartDate"`
	PeriodEndDate     string           `json:"periodEndDate"`
	UtilityCost       *float64         `json:"utilityCost"`
	CarrierPropertyID string           `json:"carrierPropertyId"`
	SpecialCases      []specialCaseDTO `json:"specialCases"`
	GasBill           *gasBillDTO      `json:"gasBill"`
	CleaningFee       bool             `json:"cleaningFee"`
	ExtraExpense      *extraExpenseDTO `json:"extraExpense"`
	BankDepositLink   string           `json:"bankDepositLink"`
}

type specialCaseDTO struct {
	PropertyID string  `json:"propertyId"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Rent       float64 `json:"rent"`
	HOA        float64 `json:"hoa"`
}

type gasBillDTO struct {
	Amount     float64 `json:"amount"`
	ReceiptRef string  `json:"receiptRef"`
}

type extraExpenseDTO struct {
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	ReceiptRefs []string `json:"receiptRefs"`
}

type itemResultDTO struct {
	PropertyID string `json:"propertyId"`
	Property   string `json:"property,omitempty"`
	Status     string `json:"status"`
	PaymentID  string `json:"paymentId,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

type stageStatusDTO struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type batchResponseDTO struct {
	BatchID    string          `json:"batchId"`
	Success    bool            `json:"success"`
	Results    []itemResultDTO `json:"results"`
	SharedFees stageStatusDTO  `json:"sharedFees"`
	Reports    stageStatusDTO  `json:"reports"`
}

// ServeHTTP handles POST /api/v1/settlements/batch.
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var dto batchRequestDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	req, err := h.toDomain(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := h.service.Run(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := batchResponseDTO{
		BatchID:    req.BatchID,
		Success:    outcome.Success,
		Results:    make([]itemResultDTO, 0, len(outcome.Results)),
		SharedFees: stageStatusDTO{Status: outcome.SharedFees.Status, Message: outcome.SharedFees.Message},
		Reports:    stageStatusDTO{Status: outcome.Reports.Status, Message: outcome.Reports.Message},
	}
	for _, item := range outcome.Results {
		resp.Results = append(resp.Results, itemResultDTO{
			PropertyID: item.PropertyID,
			Property:   item.PropertyName,
			Status:     item.Status,
			PaymentID:  item.PaymentID,
			Code:       item.Code,
			Message:    item.Message,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)

	h.logAudit(r, req)
}

// toDomain normalizes the wire request. All date parsing happens here; the
// engine only ever sees noon-UTC instants. A present-but-unparseable date is
// rejected rather than silently replaced. The caller's batch id is opaque and
// carried through to the response, audit entry and operator alerts; one is
// generated only when the caller sends none.
func (h *BatchHandler) toDomain(dto batchRequestDTO) (settlement.BatchRequest, error) {
	batchID := dto.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	req := settlement.BatchRequest{
		BatchID:        batchID,
		PropertyIDs:    dto.PropertyIDs,
		CarrierID:      dto.CarrierPropertyID,
		BankDepositRef: dto.BankDepositLink,
	}

	if dto.UtilityCost != nil {
		req.UtilityCost = *dto.UtilityCost
	} else {
		req.UtilityCost = h.defaultUtilityCost
	}

	var err error
	if dto.ReportDate != "" {
		req.ReportDate, err = settlement.NormalizeDate(dto.ReportDate)
		if err != nil {
			return settlement.BatchRequest{}, fmt.Errorf("reportDate: %w", err)
		}
	}
	req.PeriodStart, err = settlement.NormalizeDate(dto.PeriodStartDate)
	if err != nil {
		return settlement.BatchRequest{}, fmt.Errorf("periodStartDate: %w", err)
	}
	req.PeriodEnd, err = settlement.NormalizeDate(dto.PeriodEndDate)
	if err != nil {
		return settlement.BatchRequest{}, fmt.Errorf("periodEndDate: %w", err)
	}

	for i, sc := range dto.SpecialCases {
		exc := settlement.ExceptionCase{
			PropertyID: sc.PropertyID,
			Rent:       sc.Rent,
			HOA:        sc.HOA,
		}
		exc.StartDate, err = settlement.NormalizeDate(sc.StartDate)
		if err != nil {
			return settlement.BatchRequest{}, fmt.Errorf("specialCases[%d].startDate: %w", i, err)
		}
		exc.EndDate, err = settlement.NormalizeDate(sc.EndDate)
		if err != nil {
			return settlement.BatchRequest{}, fmt.Errorf("specialCases[%d].endDate: %w", i, err)
		}
		req.Exceptions = append(req.Exceptions, exc)
	}

	if dto.GasBill != nil {
		req.Fees.Gas = &settlement.GasFee{Amount: dto.GasBill.Amount, ReceiptRef: dto.GasBill.ReceiptRef}
	}
	req.Fees.Cleanup = dto.CleaningFee
	if dto.ExtraExpense != nil {
		req.Fees.Extra = &settlement.ExtraFee{
			Amount:      dto.ExtraExpense.Amount,
			Description: dto.ExtraExpense.Description,
			ReceiptRefs: dto.ExtraExpense.ReceiptRefs,
		}
	}

	return req, nil
}

func (h *BatchHandler) logAudit(r *http.Request, req settlement.BatchRequest) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"property_count":  len(req.PropertyIDs),
		"exception_count": len(req.Exceptions),
		"period_start":    req.PeriodStart.Format(time.RFC3339),
		"period_end":      req.PeriodEnd.Format(time.RFC3339),
		"carrier":         req.Carrier(),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "settlement.batch",
		ResourceType: "settlement_batch",
		ResourceID:   req.BatchID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
