package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vetcal/scheduling-service/internal/observability/metrics"
	"github.com/vetcal/scheduling-service/internal/schedule"
	"github.com/vetcal/scheduling-service/pkg/logging"
)

type RouterConfig struct {
	Query        *schedule.QueryService
	Booking      *schedule.BookingService
	Availability schedule.AvailabilityStore
	Appointments schedule.AppointmentStore
	Logger       *logging.Logger
	Metrics      *metrics.SchedulingMetrics
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Scheduling
	r.Post("/availability/query", queryAvailabilityHandler(cfg.Query))
	r.Post("/availability-windows", createWindowHandler(cfg.Availability))
	r.Delete("/availability-windows/{id}", deactivateWindowHandler(cfg.Availability))

	// Appointments
	r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/confirm", transitionHandler(cfg.Appointments, schedule.StatusConfirmed))
	r.Post("/appointments/{id}/start", transitionHandler(cfg.Appointments, schedule.StatusInProgress))
	r.Post("/appointments/{id}/complete", transitionHandler(cfg.Appointments, schedule.StatusCompleted))
	r.Post("/appointments/{id}/cancel", transitionHandler(cfg.Appointments, schedule.StatusCancelled))
	r.Post("/appointments/{id}/no-show", transitionHandler(cfg.Appointments, schedule.StatusNoShow))

	// Owners
	r.Get("/owners/{id}/appointments", listOwnerAppointmentsHandler(cfg.Appointments))

	return r
}
