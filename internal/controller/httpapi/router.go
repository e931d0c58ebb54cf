// Package httpapi JSON API поверх сервисов: chi-роутер, bearer-аутентификация, SSE
package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	accounts     *service.AccountService
	availability *service.AvailabilityService
	bookings     *service.BookingService
	messages     *service.MessageService
	loc          *time.Location
	logger       *zap.Logger
}

func NewHandler(
	accounts *service.AccountService,
	availability *service.AvailabilityService,
	bookings *service.BookingService,
	messages *service.MessageService,
	loc *time.Location,
	logger *zap.Logger,
) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		accounts:     accounts,
		availability: availability,
		bookings:     bookings,
		messages:     messages,
		loc:          loc,
		logger:       logger,
	}
}

// Routes собирает роутер со всеми маршрутами API
func (h *Handler) Routes() http.Handler {
	authMiddleware := NewAuthMiddleware(h.accounts, h.logger)

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(h.logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, maxBodyBytes)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.With(authMiddleware).Group(func(r chi.Router) {
			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)
			r.Get("/auth/stream", h.IdentityStream)
			r.Put("/me/telegram", h.LinkTelegram)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(model.RoleAdmin))
				r.Get("/accounts", h.ListAccounts)
				r.Post("/accounts", h.ProvisionAccount)
				r.Patch("/accounts/{id}/status", h.SetAccountStatus)
			})

			r.Get("/teachers", h.ListTeachers)
			r.Get("/students", h.ListStudents)
			r.Get("/teachers/{id}/availability", h.GetAvailability)
			r.Get("/teachers/{id}/availability.png", h.GetAvailabilityImage)

			r.With(RequireRole(model.RoleTeacher)).Group(func(r chi.Router) {
				r.Post("/availability", h.AddSlot)
				r.Delete("/availability/{day}/{index}", h.RemoveSlot)
			})

			r.Post("/appointments", h.RequestAppointment)
			r.Get("/appointments", h.ListAppointments)
			r.Get("/appointments/dashboard", h.Dashboard)
			r.Patch("/appointments/{id}/status", h.SetAppointmentStatus)

			r.Post("/messages", h.SendMessage)
			r.Get("/messages/{userId}", h.Conversation)
			r.Get("/messages/{userId}/stream", h.MessageStream)
		})
	})

	return r
}
