package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "rentroll_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	batchRunTotal   *prometheus.CounterVec
	batchRunLatency *prometheus.HistogramVec
	batchItemTotal  *prometheus.CounterVec

	reportPersistTotal   *prometheus.CounterVec
	reportPersistLatency *prometheus.HistogramVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	receiptUploadTotal   *prometheus.CounterVec
	receiptUploadLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		batchRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_run_total",
				Help: "Total settlement batch runs by result",
			},
			[]string{"result"},
		)
		batchRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "batch_run_latency_seconds",
				Help:    "Settlement batch run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		batchItemTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "batch_item_total",
				Help: "Total per-property batch outcomes by status",
			},
			[]string{"status"},
		)

		reportPersistTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_persist_total",
				Help: "Total monthly report transactions by result",
			},
			[]string{"result"},
		)
		reportPersistLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_persist_latency_seconds",
				Help:    "Monthly report transaction latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		receiptUploadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "receipt_upload_total",
				Help: "Total receipt uploads by result",
			},
			[]string{"result"},
		)
		receiptUploadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "receipt_upload_latency_seconds",
				Help:    "Receipt upload latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			batchRunTotal,
			batchRunLatency,
			batchItemTotal,
			reportPersistTotal,
			reportPersistLatency,
			reportExportTotal,
			reportExportLatency,
			receiptUploadTotal,
			receiptUploadLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveBatchRun records batch run duration and result.
func ObserveBatchRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if batchRunTotal != nil {
		batchRunTotal.WithLabelValues(result).Inc()
	}
	if batchRunLatency != nil {
		batchRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncBatchItem increments the per-property outcome counter.
func IncBatchItem(status string) {
	if status == "" {
		status = "unknown"
	}
	if batchItemTotal != nil {
		batchItemTotal.WithLabelValues(status).Inc()
	}
}

// ObserveReportPersist records report transaction latency and result.
func ObserveReportPersist(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reportPersistTotal != nil {
		reportPersistTotal.WithLabelValues(result).Inc()
	}
	if reportPersistLatency != nil {
		reportPersistLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveReceiptUpload records receipt upload latency and result.
func ObserveReceiptUpload(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if receiptUploadTotal != nil {
		receiptUploadTotal.WithLabelValues(result).Inc()
	}
	if receiptUploadLatency != nil {
		receiptUploadLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
