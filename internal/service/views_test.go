package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
)

func appt(id, date, start string, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{ID: id, Date: date, StartTime: start, EndTime: "23:59", Status: status}
}

func apptIDs(appointments []*model.Appointment) []string {
	out := []string{}
	for _, a := range appointments {
		out = append(out, a.ID)
	}
	return out
}

func TestViews(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	appointments := []*model.Appointment{
		appt("future-approved-late", "2024-03-20", "09:00", model.AppointmentStatusApproved),
		appt("future-pending", "2024-03-11", "09:00", model.AppointmentStatusPending),
		appt("future-approved-soon", "2024-03-10", "13:00", model.AppointmentStatusApproved),
		appt("now-approved", "2024-03-10", "12:00", model.AppointmentStatusApproved),
		appt("past-rejected", "2024-03-01", "10:00", model.AppointmentStatusRejected),
		appt("past-1", "2024-02-01", "10:00", model.AppointmentStatusApproved),
		appt("past-2", "2024-02-02", "10:00", model.AppointmentStatusPending),
		appt("past-3", "2024-02-03", "10:00", model.AppointmentStatusApproved),
		appt("past-4", "2024-02-04", "10:00", model.AppointmentStatusApproved),
		appt("broken-date", "not-a-date", "10:00", model.AppointmentStatusApproved),
	}

	t.Run("sort by schedule puts broken dates last", func(t *testing.T) {
		sorted := SortBySchedule(appointments, time.UTC)
		assert.Equal(t, "past-1", sorted[0].ID)
		assert.Equal(t, "broken-date", sorted[len(sorted)-1].ID)
		// исходный срез не меняется
		assert.Equal(t, "future-approved-late", appointments[0].ID)
	})

	t.Run("upcoming is approved and strictly after now", func(t *testing.T) {
		assert.Equal(t,
			[]string{"future-approved-soon", "future-approved-late"},
			apptIDs(Upcoming(appointments, now, time.UTC)))
	})

	t.Run("recent is at or before now ascending first five", func(t *testing.T) {
		assert.Equal(t,
			[]string{"past-1", "past-2", "past-3", "past-4", "past-rejected"},
			apptIDs(Recent(appointments, now, time.UTC, RecentLimit)))
	})

	t.Run("recent includes the current instant", func(t *testing.T) {
		only := []*model.Appointment{appointments[3]}
		assert.Equal(t, []string{"now-approved"}, apptIDs(Recent(only, now, time.UTC, RecentLimit)))
	})

	t.Run("recent with non-positive limit is empty", func(t *testing.T) {
		assert.Empty(t, Recent(appointments, now, time.UTC, 0))
		assert.Empty(t, Recent(appointments, now, time.UTC, -1))
		assert.Len(t, Recent(appointments, now, time.UTC, 2), 2)
	})

	t.Run("pending", func(t *testing.T) {
		assert.Equal(t, []string{"past-2", "future-pending"}, apptIDs(Pending(appointments, time.UTC)))
	})

	t.Run("timezone shifts the boundary", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*60*60)
		// 13:00 в UTC+3 = 10:00 UTC, это уже прошло
		only := []*model.Appointment{appointments[2]}
		assert.Empty(t, Upcoming(only, now, loc))
	})
}
