package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	apihttp "rentroll-cloud/internal/api/http"
	"rentroll-cloud/internal/audit"
	"rentroll-cloud/internal/auth"
	"rentroll-cloud/internal/observability/metrics"
	propertiesrepo "rentroll-cloud/internal/properties/infrastructure/postgres"
	propertieshttp "rentroll-cloud/internal/properties/interfaces/http"
	"rentroll-cloud/internal/receipts"
	settlementadapters "rentroll-cloud/internal/settlement/adapters/properties"
	settlementapp "rentroll-cloud/internal/settlement/application"
	settlementrepo "rentroll-cloud/internal/settlement/infrastructure/postgres"
	settlementinterfaces "rentroll-cloud/internal/settlement/interfaces"
	settlementnotify "rentroll-cloud/internal/settlement/notify"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	propertyChecker := auth.NewPropertyChecker(db)
	auditRepo := audit.NewRepository(db)

	settlementCfg, err := settlementapp.LoadConfig()
	if err != nil {
		logger.Fatalf("settlement config error: %v", err)
	}

	ledgerRepo := settlementrepo.NewLedgerRepository(db)
	propertyReader := settlementadapters.NewPropertyReader(db)

	var notifier settlementapp.OperatorNotifier
	if settlementCfg.WebhookURL != "" {
		notifier = settlementnotify.NewWebhookNotifier(settlementCfg.WebhookURL, logger)
	}

	batchService, err := settlementapp.NewBatchService(
		ledgerRepo,
		propertyReader,
		settlementCfg.Policy(),
		notifier,
		logger,
		settlementapp.SystemClock{},
	)
	if err != nil {
		logger.Fatalf("batch service error: %v", err)
	}
	batchHandler, err := settlementinterfaces.NewBatchHandler(batchService, auditRepo, settlementCfg.DefaultUtilityCost)
	if err != nil {
		logger.Fatalf("batch handler error: %v", err)
	}
	reportHandler, err := settlementinterfaces.NewReportHandler(ledgerRepo)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	propertyRepo := propertiesrepo.NewPropertyRepository(db)
	propertyHandler, err := propertieshttp.NewHandler(propertyRepo, auditRepo)
	if err != nil {
		logger.Fatalf("properties handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/settlements/batch", batchHandler)
	mux.Handle("/api/v1/reports", reportHandler)
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/api/v1/payments", apihttp.NewPaymentsHandler(ledgerRepo, propertyChecker))
	mux.Handle("/api/v1/expenses", apihttp.NewExpensesHandler(ledgerRepo, propertyChecker))
	mux.Handle("/api/v1/exports/reports.csv", apihttp.NewExportReportsCSVHandler(ledgerRepo))
	mux.Handle("/api/v1/properties", propertyHandler)
	mux.Handle("/api/v1/properties/", propertyHandler)

	if cfg.MinioEndpoint != "" {
		store, err := receipts.NewMinioStore(receipts.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKey,
			SecretAccessKey: cfg.MinioSecretKey,
			Bucket:          cfg.MinioBucket,
			UseSSL:          cfg.MinioUseSSL,
			Region:          cfg.MinioRegion,
			Prefix:          cfg.MinioPrefix,
		})
		if err != nil {
			logger.Fatalf("receipt store error: %v", err)
		}
		receiptHandler, err := receipts.NewHandler(store)
		if err != nil {
			logger.Fatalf("receipt handler error: %v", err)
		}
		mux.Handle("/api/v1/receipts", receiptHandler)
	}

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL    string
	HTTPAddr       string
	JWTSecret      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
	MinioPrefix    string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		MinioEndpoint:  getenvDefault("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenvDefault("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenvDefault("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenvDefault("MINIO_BUCKET", "receipts"),
		MinioUseSSL:    getenvBoolDefault("MINIO_USE_SSL", false),
		MinioRegion:    getenvDefault("MINIO_REGION", ""),
		MinioPrefix:    getenvDefault("MINIO_PREFIX", "receipts/"),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
