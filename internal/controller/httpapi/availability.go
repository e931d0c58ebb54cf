package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/render"
	"github.com/go-chi/chi/v5"
)

type availabilityResponse struct {
	TeacherID    string             `json:"teacherId"`
	Availability model.Availability `json:"availability"`
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	teacher, availability, err := h.availability.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{TeacherID: teacher.ID, Availability: availability})
}

// GetAvailabilityImage недельная сетка учителя в PNG
func (h *Handler) GetAvailabilityImage(w http.ResponseWriter, r *http.Request) {
	teacher, availability, err := h.availability.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, err := render.AvailabilityPNG(availability, render.Options{
		Title: teacher.Name,
		Today: render.TodayIn(time.Now(), h.loc),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// AddSlot учитель добавляет слот в своё расписание
func (h *Handler) AddSlot(w http.ResponseWriter, r *http.Request) {
	var slot model.TimeSlot
	if err := decodeJSON(r, &slot); err != nil {
		h.writeError(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	availability, err := h.availability.AddSlot(r.Context(), actor, actor.ID, slot)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{TeacherID: actor.ID, Availability: availability})
}

func (h *Handler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, r, model.NewValidationError("index", "must be a number"))
		return
	}

	actor := actorFrom(r.Context())
	availability, err := h.availability.RemoveSlot(r.Context(), actor, actor.ID, model.Weekday(chi.URLParam(r, "day")), index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{TeacherID: actor.ID, Availability: availability})
}
