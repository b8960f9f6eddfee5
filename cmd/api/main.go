package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicore/hospital-api/internal/config"
	appointmenthandler "github.com/medicore/hospital-api/internal/handler/appointment"
	audithandler "github.com/medicore/hospital-api/internal/handler/audit"
	authhandler "github.com/medicore/hospital-api/internal/handler/auth"
	billinghandler "github.com/medicore/hospital-api/internal/handler/billing"
	healthhandler "github.com/medicore/hospital-api/internal/handler/health"
	inventoryhandler "github.com/medicore/hospital-api/internal/handler/inventory"
	patienthandler "github.com/medicore/hospital-api/internal/handler/patient"
	userhandler "github.com/medicore/hospital-api/internal/handler/user"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/router"
	appointmentservice "github.com/medicore/hospital-api/internal/service/appointment"
	auditservice "github.com/medicore/hospital-api/internal/service/audit"
	authservice "github.com/medicore/hospital-api/internal/service/auth"
	billingservice "github.com/medicore/hospital-api/internal/service/billing"
	inventoryservice "github.com/medicore/hospital-api/internal/service/inventory"
	notificationservice "github.com/medicore/hospital-api/internal/service/notification"
	patientservice "github.com/medicore/hospital-api/internal/service/patient"
	userservice "github.com/medicore/hospital-api/internal/service/user"
	"github.com/medicore/hospital-api/pkg/auth"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/messaging"
	redisbroker "github.com/medicore/hospital-api/pkg/messaging/redis"
	"github.com/medicore/hospital-api/pkg/metrics"
	"github.com/medicore/hospital-api/pkg/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{Level: level, Pretty: cfg.Logging.Pretty})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.ZL)
		if err != nil {
			log.Fatal(err, "failed to connect to redis")
		}
		defer broker.Close()
	}

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	billRepo := postgres.NewBillRepository(baseRepo)
	inventoryRepo := postgres.NewInventoryRepository(db)
	recordRepo := postgres.NewMedicalRecordRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        cfg.JWT.Expiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
	})
	hasher := security.NewBcryptHasher(12)
	auditor := auditservice.NewService(activityRepo, log)
	notifier := notificationservice.NewService(notificationRepo, broker, log)

	authSvc := authservice.NewService(userRepo, roleRepo, tokenRepo, jwtSvc, hasher, auditor)
	userSvc := userservice.NewService(userRepo, tokenRepo, auditor)
	patientSvc := patientservice.NewService(patientRepo, recordRepo, auditor)
	appointmentSvc := appointmentservice.NewService(appointmentRepo, patientRepo, userRepo, auditor, notifier)
	billingSvc := billingservice.NewService(billRepo, patientRepo, auditor, notifier, cfg.Hospital)
	inventorySvc := inventoryservice.NewService(inventoryRepo, auditor, notifier)

	// HTTP layer
	m := metrics.New("hospital_api")
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	r := router.New(cfg, log, m, authMW)
	r.Setup(
		healthhandler.NewHandler(db),
		authhandler.NewHandler(authSvc, authMW),
		userhandler.NewHandler(userSvc, authMW),
		patienthandler.NewHandler(patientSvc, authMW),
		appointmenthandler.NewHandler(appointmentSvc, authMW),
		billinghandler.NewHandler(billingSvc, authMW),
		inventoryhandler.NewHandler(inventorySvc, authMW),
		audithandler.NewHandler(auditor, authMW),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}
