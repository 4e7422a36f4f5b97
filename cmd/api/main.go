package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dentalia/clinic-api/internal/config"
	appointmentHandler "github.com/dentalia/clinic-api/internal/handler/appointment"
	authHandler "github.com/dentalia/clinic-api/internal/handler/auth"
	blockeddayHandler "github.com/dentalia/clinic-api/internal/handler/blockedday"
	catalogHandler "github.com/dentalia/clinic-api/internal/handler/catalog"
	eventsHandler "github.com/dentalia/clinic-api/internal/handler/events"
	healthHandler "github.com/dentalia/clinic-api/internal/handler/health"
	patientHandler "github.com/dentalia/clinic-api/internal/handler/patient"
	patientrequestHandler "github.com/dentalia/clinic-api/internal/handler/patientrequest"
	reminderHandler "github.com/dentalia/clinic-api/internal/handler/reminder"
	syncHandler "github.com/dentalia/clinic-api/internal/handler/sync"
	"github.com/dentalia/clinic-api/internal/middleware"
	"github.com/dentalia/clinic-api/internal/realtime"
	"github.com/dentalia/clinic-api/internal/repository/postgres"
	"github.com/dentalia/clinic-api/internal/router"
	appointmentService "github.com/dentalia/clinic-api/internal/service/appointment"
	authService "github.com/dentalia/clinic-api/internal/service/auth"
	blockeddayService "github.com/dentalia/clinic-api/internal/service/blockedday"
	catalogService "github.com/dentalia/clinic-api/internal/service/catalog"
	notificationService "github.com/dentalia/clinic-api/internal/service/notification"
	patientService "github.com/dentalia/clinic-api/internal/service/patient"
	patientrequestService "github.com/dentalia/clinic-api/internal/service/patientrequest"
	reminderService "github.com/dentalia/clinic-api/internal/service/reminder"
	"github.com/dentalia/clinic-api/pkg/auth"
	"github.com/dentalia/clinic-api/pkg/logger"
	"github.com/dentalia/clinic-api/pkg/messaging"
	"github.com/dentalia/clinic-api/pkg/messaging/redis"
	"github.com/dentalia/clinic-api/pkg/metrics"
	"github.com/dentalia/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("clinic_api")

	var broker messaging.Broker
	var publisher realtime.Publisher
	broker, err = redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		// Realtime is an enhancement; clients poll /sync-status when the
		// stream is down.
		log.Warn().Err(err).Msg("redis unavailable, realtime signals disabled")
		broker = nil
		publisher = realtime.NopPublisher{}
	} else {
		defer broker.Close()
		publisher = realtime.NewPublisher(broker, log.Logger, m)
	}

	base := postgres.NewBaseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	blockedDayRepo := postgres.NewBlockedDayRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	requestRepo := postgres.NewPatientRequestRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	userRepo := postgres.NewUserRepository(base)
	catalogRepo := postgres.NewCatalogRepository(base)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	notifSvc := notificationService.NewService(notificationRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, notifSvc, publisher, m, log.Logger)
	blockedDaySvc := blockeddayService.NewService(blockedDayRepo, publisher)
	requestSvc := patientrequestService.NewService(requestRepo, appointmentRepo, publisher, log.Logger)
	reminderSvc := reminderService.NewService(appointmentRepo, requestSvc, notifSvc, m, log.Logger)
	patientSvc := patientService.NewService(patientRepo, publisher, log.Logger)
	catalogSvc := catalogService.NewService(catalogRepo, publisher)
	authSvc := authService.NewService(userRepo, jwtSvc, log.Logger)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	r := router.NewRouter(authMiddleware, router.Config{
		RateLimit:  rate.Limit(50),
		RateBurst:  100,
		CORS:       middleware.DefaultCORSConfig(),
		CronSecret: cfg.Reminder.CronSecret,
	})

	r.Public(
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		patientrequestHandler.NewHandler(requestSvc),
		syncHandler.NewHandler(appointmentRepo, blockedDayRepo),
	)
	if broker != nil {
		r.Public(eventsHandler.NewHandler(broker, log.Logger))
	}
	r.Staff(
		appointmentHandler.NewHandler(appointmentSvc),
		blockeddayHandler.NewHandler(blockedDaySvc),
		patientHandler.NewHandler(patientSvc),
	)
	r.Admin(catalogHandler.NewHandler(catalogSvc))
	r.Internal(reminderHandler.NewHandler(reminderSvc))
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
