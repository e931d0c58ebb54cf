package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/service"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) RequestAppointment(w http.ResponseWriter, r *http.Request) {
	var in service.RequestAppointmentInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	appointment, err := h.bookings.RequestAppointment(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.bookings.ListForActor(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(appointments))
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.bookings.Dashboard(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dashboard.Upcoming = nonNil(dashboard.Upcoming)
	dashboard.Recent = nonNil(dashboard.Recent)
	dashboard.Pending = nonNil(dashboard.Pending)
	writeJSON(w, http.StatusOK, dashboard)
}

// SetAppointmentStatus учитель одобряет или отклоняет запрос
func (h *Handler) SetAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	appointment, err := h.bookings.SetStatus(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), model.AppointmentStatus(in.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}
