package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rentroll-cloud/internal/observability/metrics"
	settlement "rentroll-cloud/internal/settlement/domain"
)

// ReportLister loads monthly report rows for a period.
type ReportLister interface {
	ListReports(ctx context.Context, periodStart, periodEnd time.Time) ([]settlement.MonthlyReportRow, error)
}

// ReportHandler serves monthly report queries and exports.
type ReportHandler struct {
	lister ReportLister
}

// NewReportHandler constructs a handler.
func NewReportHandler(lister ReportLister) (*ReportHandler, error) {
	if lister == nil {
		return nil, errors.New("report handler: nil lister")
	}
	return &ReportHandler{lister: lister}, nil
}

type reportRowDTO struct {
	ID              string    `json:"id"`
	PropertyID      string    `json:"propertyId"`
	PeriodStart     time.Time `json:"periodStart"`
	PeriodEnd       time.Time `json:"periodEnd"`
	ReportDate      time.Time `json:"reportDate"`
	TotalRent       float64   `json:"totalRent"`
	TotalHOA        float64   `json:"totalHoa"`
	TotalDeductions float64   `json:"totalDeductions"`
	Payout          float64   `json:"payout"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ServeHTTP handles GET /api/v1/reports and the export variants.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.lister.ListReports(r.Context(), from, to)
	if err != nil {
		http.Error(w, "query reports error", http.StatusInternalServerError)
		return
	}

	switch r.URL.Path {
	case "/api/v1/reports/export.pdf":
		h.serveExport(w, rows, "pdf")
	case "/api/v1/reports/export.xlsx":
		h.serveExport(w, rows, "xlsx")
	default:
		dtos := make([]reportRowDTO, 0, len(rows))
		for _, row := range rows {
			dtos = append(dtos, reportRowDTO{
				ID:              row.ID,
				PropertyID:      row.PropertyID,
				PeriodStart:     row.PeriodStart,
				PeriodEnd:       row.PeriodEnd,
				ReportDate:      row.ReportDate,
				TotalRent:       row.TotalRent,
				TotalHOA:        row.TotalHOA,
				TotalDeductions: row.TotalDeductions,
				Payout:          row.Payout,
				CreatedAt:       row.CreatedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dtos)
	}
}

func (h *ReportHandler) serveExport(w http.ResponseWriter, rows []settlement.MonthlyReportRow, format string) {
	start := time.Now()
	result := metrics.ResultSuccess

	var data []byte
	var err error
	switch format {
	case "pdf":
		data, err = BuildReportPDF(rows)
	case "xlsx":
		data, err = BuildReportXLSX(rows)
	}
	if err != nil {
		result = metrics.ResultError
		metrics.ObserveReportExport(format, result, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveReportExport(format, result, time.Since(start))

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="monthly-report.pdf"`)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="monthly-report.xlsx"`)
	}
	_, _ = w.Write(data)
}

func periodFromQuery(r *http.Request) (time.Time, time.Time, error) {
	fromValue := r.URL.Query().Get("from")
	toValue := r.URL.Query().Get("to")
	if fromValue == "" || toValue == "" {
		return time.Time{}, time.Time{}, errors.New("from/to required")
	}
	from, err := settlement.NormalizeDate(fromValue)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("from: " + err.Error())
	}
	to, err := settlement.NormalizeDate(toValue)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("to: " + err.Error())
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}
