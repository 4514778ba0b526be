package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiki-studio/booking-console/internal/api"
	"github.com/hibiki-studio/booking-console/internal/booking"
	"github.com/hibiki-studio/booking-console/internal/calendar"
	"github.com/hibiki-studio/booking-console/internal/clients"
	"github.com/hibiki-studio/booking-console/internal/config"
	"github.com/hibiki-studio/booking-console/internal/db"
	"github.com/hibiki-studio/booking-console/internal/notify"
	redisclient "github.com/hibiki-studio/booking-console/internal/redis"
	"github.com/hibiki-studio/booking-console/internal/store"
)

const version = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "api-server")
	logger.Info("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load error", "err", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"http_port", cfg.HTTPPort,
		"timezone", cfg.Location.String(),
		"calendar_enabled", cfg.CalendarEnabled,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "err", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection error", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "err", err)
		}
	}()
	logger.Info("connected to Redis")

	recordStore := store.NewPgStore(pgPool)
	schemaCtx, cancelSchema := context.WithTimeout(rootCtx, 5*time.Second)
	err = recordStore.EnsureSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		logger.Error("schema setup error", "err", err)
		os.Exit(1)
	}

	var gateway calendar.Gateway
	if cfg.CalendarEnabled {
		gateway = calendar.NewHTTPGateway(cfg.CalendarBaseURL, cfg.CalendarAPIKey, cfg.CalendarTimeout)
	}

	settings := booking.Settings{
		Location:        cfg.Location,
		ClosedWeekdays:  cfg.ClosedWeekdays,
		SlotTimes:       cfg.SlotTimes,
		SessionLength:   cfg.SessionLength,
		CalendarEnabled: cfg.CalendarEnabled,
		MeetingLinkBase: cfg.MeetingLinkBase,
		OperatorEmail:   cfg.OperatorEmail,
	}

	resolver := clients.NewIdentityResolver(recordStore, cfg.Location, logger)
	calculator := booking.NewSlotCalculator(recordStore, gateway, settings, logger)
	dispatcher := notify.NewDispatcher(notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom), logger)
	coordinator := booking.NewCoordinator(recordStore, resolver, calculator, gateway, dispatcher, settings, logger)
	limiter := redisclient.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, logger)

	router := api.NewRouter(api.RouterConfig{
		Calculator:  calculator,
		Coordinator: coordinator,
		RateLimiter: limiter,
		PgPool:      pgPool,
		Redis:       rdb,
		Location:    cfg.Location,
		Logger:      logger,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
