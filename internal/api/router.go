package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hibiki-studio/booking-console/internal/booking"
	redisclient "github.com/hibiki-studio/booking-console/internal/redis"
)

type RouterConfig struct {
	Calculator  *booking.SlotCalculator
	Coordinator *booking.Coordinator
	RateLimiter *redisclient.RateLimiter
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Location    *time.Location
	Logger      *slog.Logger
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public booking endpoints, rate limited
	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Get("/availability", availabilityHandler(cfg.Calculator))
		r.Post("/bookings", createBookingHandler(cfg.Coordinator))
	})

	// Operator endpoints
	r.Get("/sessions", listSessionsHandler(cfg.Coordinator, cfg.Location))
	r.Post("/sessions/{id}/cancel", cancelSessionHandler(cfg.Coordinator, cfg.Location))
	r.Post("/sessions/{id}/complete", completeSessionHandler(cfg.Coordinator, cfg.Location))

	return r
}
