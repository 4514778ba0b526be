package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiki-studio/booking-console/internal/booking"
	"github.com/hibiki-studio/booking-console/internal/config"
	"github.com/hibiki-studio/booking-console/internal/db"
	"github.com/hibiki-studio/booking-console/internal/store"
)

// The reconcile worker sweeps the session collection for double-booked
// slots. The record store cannot reject a concurrent duplicate at write
// time, so this pass backstops the in-line reconciliation done by the
// booking flow.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "reconcile-worker")
	logger.Info("reconcile-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load error", "err", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded", "env", cfg.Env, "interval", cfg.WorkerInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "err", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	recordStore := store.NewPgStore(pgPool)
	reconciler := booking.NewReconciler(recordStore, cfg.Location, logger)

	// Run once at startup
	runOnce(rootCtx, reconciler, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping reconcile worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, reconciler, logger)
		}
	}
}

func runOnce(ctx context.Context, reconciler *booking.Reconciler, logger *slog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := reconciler.ReconcileAll(runCtx); err != nil {
		logger.Error("reconcile run error", "err", err)
		return
	}
	logger.Info("reconcile run complete", "duration", time.Since(start).String())
}
