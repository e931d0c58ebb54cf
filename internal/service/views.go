package service

import (
	"sort"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
)

// RecentLimit сколько прошедших встреч показывать на панели
const RecentLimit = 5

// SortBySchedule по возрастанию даты+времени начала; записи с битой датой - в конце
func SortBySchedule(appointments []*model.Appointment, loc *time.Location) []*model.Appointment {
	out := make([]*model.Appointment, len(appointments))
	copy(out, appointments)

	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := out[i].ScheduledAt(loc)
		tj, okJ := out[j].ScheduledAt(loc)
		if !okI || !okJ {
			return okI && !okJ
		}
		return ti.Before(tj)
	})
	return out
}

// Upcoming одобренные встречи строго позже now, по возрастанию
func Upcoming(appointments []*model.Appointment, now time.Time, loc *time.Location) []*model.Appointment {
	var out []*model.Appointment
	for _, a := range SortBySchedule(appointments, loc) {
		at, ok := a.ScheduledAt(loc)
		if ok && a.Status == model.AppointmentStatusApproved && at.After(now) {
			out = append(out, a)
		}
	}
	return out
}

// Recent встречи в момент now или раньше, любого статуса, по возрастанию, первые limit;
// limit <= 0 - пустой результат
func Recent(appointments []*model.Appointment, now time.Time, loc *time.Location, limit int) []*model.Appointment {
	if limit <= 0 {
		return nil
	}
	var out []*model.Appointment
	for _, a := range SortBySchedule(appointments, loc) {
		at, ok := a.ScheduledAt(loc)
		if !ok || at.After(now) {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Pending ожидающие решения учителя, по возрастанию
func Pending(appointments []*model.Appointment, loc *time.Location) []*model.Appointment {
	var out []*model.Appointment
	for _, a := range SortBySchedule(appointments, loc) {
		if a.Status == model.AppointmentStatusPending {
			out = append(out, a)
		}
	}
	return out
}
