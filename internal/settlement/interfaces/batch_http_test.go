package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	settlementapp "rentroll-cloud/internal/settlement/application"
	"rentroll-cloud/internal/settlement/infrastructure/memory"
)

type stubReader struct {
	properties map[string]settlementapp.BilledProperty
}

func (s *stubReader) ListByIDs(_ context.Context, ids []string) ([]settlementapp.BilledProperty, error) {
	var result []settlementapp.BilledProperty
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.properties[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func newTestBatchHandler(t *testing.T, repo *memory.LedgerRepository) *BatchHandler {
	t.Helper()
	reader := &stubReader{properties: map[string]settlementapp.BilledProperty{
		"p1": {ID: "p1", Name: "Elm House", MonthlyRent: 1_000_000},
		"p2": {ID: "p2", Name: "Oak Flat", MonthlyRent: 900_000},
	}}
	logger := log.New(io.Discard, "", 0)
	service, err := settlementapp.NewBatchService(repo, reader, settlementapp.Config{CleanupAmount: 100_000}.Policy(), nil, logger, nil)
	if err != nil {
		t.Fatalf("new batch service: %v", err)
	}
	handler, err := NewBatchHandler(service, nil, 70_000)
	if err != nil {
		t.Fatalf("new batch handler: %v", err)
	}
	return handler
}

func TestBatchHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestBatchHandler(t, memory.NewLedgerRepository())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settlements/batch", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestBatchHandler_BadDate(t *testing.T) {
	handler := newTestBatchHandler(t, memory.NewLedgerRepository())
	body := `{"propertyIds":["p1"],"periodStartDate":"not a date","periodEndDate":"2025-06-30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/batch", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "periodStartDate") {
		t.Fatalf("error must name the offending field: %s", resp.Body.String())
	}
}

func TestBatchHandler_BadSpecialCaseDate(t *testing.T) {
	handler := newTestBatchHandler(t, memory.NewLedgerRepository())
	body := `{
		"propertyIds": ["p1"],
		"periodStartDate": "2025-06-01",
		"periodEndDate": "2025-06-30",
		"specialCases": [{"propertyId": "p2", "startDate": "bad", "endDate": "2025-06-15", "rent": 1, "hoa": 1}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/batch", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "specialCases[0].startDate") {
		t.Fatalf("error must name the offending field: %s", resp.Body.String())
	}
}

func TestBatchHandler_CallerBatchID(t *testing.T) {
	handler := newTestBatchHandler(t, memory.NewLedgerRepository())

	body := `{
		"batchId": "2025-06-run-1",
		"propertyIds": ["p1"],
		"periodStartDate": "2025-06-01",
		"periodEndDate": "2025-06-30"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/batch", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out batchResponseDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.BatchID != "2025-06-run-1" {
		t.Fatalf("caller batch id must round-trip, got %q", out.BatchID)
	}
}

func TestBatchHandler_UnbilledCarrier(t *testing.T) {
	handler := newTestBatchHandler(t, memory.NewLedgerRepository())

	body := `{
		"propertyIds": ["p1", "p2"],
		"periodStartDate": "2025-06-01",
		"periodEndDate": "2025-06-30",
		"carrierPropertyId": "ghost",
		"cleaningFee": true
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/batch", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestBatchHandler_EndToEnd(t *testing.T) {
	repo := memory.NewLedgerRepository()
	handler := newTestBatchHandler(t, repo)

	body := `{
		"propertyIds": ["p1", "p2"],
		"reportDate": "2025-07-01",
		"periodStartDate": "2025-06-01",
		"periodEndDate": "2025-06-30",
		"cleaningFee": true
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements/batch", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out batchResponseDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.BatchID == "" {
		t.Fatal("expected a batch id")
	}
	if !out.Success {
		t.Fatalf("expected success: %+v", out)
	}
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	for _, item := range out.Results {
		if item.Status != "success" || item.PaymentID == "" {
			t.Fatalf("unexpected item result: %+v", item)
		}
	}
	if out.SharedFees.Status != "ok" || out.Reports.Status != "ok" {
		t.Fatalf("unexpected stage statuses: %+v", out)
	}

	if len(repo.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(repo.Payments))
	}
	if len(repo.Reports) != 2 {
		t.Fatalf("expected 2 report rows, got %d", len(repo.Reports))
	}

	// The utility cost was omitted, so the handler default applies.
	p1, ok := repo.ReportFor("p1")
	if !ok {
		t.Fatal("missing report row for p1")
	}
	if p1.TotalHOA != 93_000 {
		t.Fatalf("expected hoa 93000 from default utility cost, got %v", p1.TotalHOA)
	}
	if p1.TotalDeductions != 100_000 {
		t.Fatalf("expected cleanup deduction on the carrier, got %v", p1.TotalDeductions)
	}
}
