package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "payments_pending",
			Help: "Ledger payments still in PENDING status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM ledger_payments WHERE status = 'PENDING'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "monthly_reports_total",
			Help: "Monthly report rows persisted",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM monthly_reports")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
