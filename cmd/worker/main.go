package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/medicore/hospital-api/internal/config"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/worker"
	"github.com/medicore/hospital-api/pkg/email"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/metrics"
)

// WorkerConfig is read from the environment; the worker runs headless and
// ships without a config file.
type WorkerConfig struct {
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DATABASE_USER" required:"true"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseName     string `envconfig:"DATABASE_NAME" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSLMODE" default:"disable"`

	SMTPHost     string `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" required:"true"`

	AlertsAddress string `envconfig:"ALERTS_ADDRESS"`

	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"10s"`
	BatchSize           int           `envconfig:"BATCH_SIZE" default:"50"`
	MaintenanceInterval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"1h"`
	ActivityRetention   time.Duration `envconfig:"ACTIVITY_RETENTION" default:"2160h"`

	MetricsPort int    `envconfig:"METRICS_PORT" default:"8081"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var cfg WorkerConfig
	if err := envconfig.Process("hospital_worker", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{Level: level})

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:         cfg.DatabaseHost,
		Port:         cfg.DatabasePort,
		User:         cfg.DatabaseUser,
		Password:     cfg.DatabasePassword,
		Name:         cfg.DatabaseName,
		SSLMode:      cfg.DatabaseSSLMode,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	sender := email.NewSMTPSender(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	m := metrics.New("hospital_worker")
	notificationRepo := postgres.NewNotificationRepository(db)
	notifier := worker.NewNotifier(notificationRepo, sender, log, m, worker.NotifierConfig{
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval,
		AlertsAddress: cfg.AlertsAddress,
	})

	maintenance := worker.NewMaintenance(
		postgres.NewTokenRepository(db),
		postgres.NewActivityRepository(db),
		postgres.NewInventoryRepository(db),
		notificationRepo,
		log,
		worker.MaintenanceConfig{
			Interval:          cfg.MaintenanceInterval,
			ActivityRetention: cfg.ActivityRetention,
		},
	)

	go serveMetrics(cfg.MetricsPort, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		notifier.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		maintenance.Start(ctx)
	}()
	wg.Wait()
}

func serveMetrics(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		log.Error(err, "metrics server failed")
	}
}
