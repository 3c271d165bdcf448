package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type RouterConfig struct {
	Schedule     *schedule.Service
	Appointments *appointment.Service
	Admissions   *admission.Service
	Health       *HealthHandler
	Metrics      *metrics.Metrics
	CORSOrigins  []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	if svc := cfg.Schedule; svc != nil {
		r.Route("/slots", func(r chi.Router) {
			r.Post("/", addSlotHandler(svc))
			r.Post("/recurring", addRecurringSlotsHandler(svc))
			r.Get("/upcoming/{hcp_id}", listUpcomingSlotsHandler(svc))
			r.Get("/{hcp_id}/{date}", listSlotsHandler(svc))
			r.Delete("/{slot_id}", deleteSlotHandler(svc))
		})
	}

	if svc := cfg.Appointments; svc != nil {
		r.Post("/book", bookAppointmentHandler(svc))
		r.Get("/appointment/{appointment_id}", getAppointmentHandler(svc))
		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", listAppointmentsHandler(svc))
			r.Get("/patient/{patient_id}", listByOwnerHandler(svc, "patient_id", true))
			r.Get("/{hcp_id}", listByOwnerHandler(svc, "hcp_id", false))
			r.Patch("/{appointment_id}/status", updateStatusHandler(svc))
		})
		r.Get("/patient/{patient_id}/record", recordsHandler(svc, "patient_id", true))
		r.Get("/patientrecords/{hcp_id}", recordsHandler(svc, "hcp_id", false))
	}

	if svc := cfg.Admissions; svc != nil {
		r.Route("/admission", func(r chi.Router) {
			r.Post("/admit", admitHandler(svc))
			r.Get("/admitted-patients", admittedPatientsHandler(svc))
			r.Put("/fees/{admission_id}", addFeesHandler(svc))
			r.Put("/discharge/{admission_id}", dischargeHandler(svc))
			r.Get("/{admission_id}", getAdmissionHandler(svc))
		})
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", addRoomHandler(svc))
			r.Get("/", listRoomsHandler(svc))
			r.Get("/available", availableRoomsHandler(svc))
			r.Get("/{room_id}", getRoomHandler(svc))
			r.Put("/{room_id}", updateRoomHandler(svc))
			r.Delete("/{room_id}", deleteRoomHandler(svc))
		})
	}

	return r
}
