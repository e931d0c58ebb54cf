package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"  // Ожидает решения учителя
	AppointmentStatusApproved AppointmentStatus = "approved" // Одобрено
	AppointmentStatusRejected AppointmentStatus = "rejected" // Отклонено учителем
	// Completed есть в модели, но ни один переход в него не ведёт
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCompleted:
		return true
	}
	return false
}

// CanTransition допустимы только pending -> approved и pending -> rejected
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	if s != AppointmentStatusPending {
		return false
	}
	return to == AppointmentStatusApproved || to == AppointmentStatusRejected
}

// DateLayout формат календарной даты встречи
const DateLayout = "2006-01-02"

type Appointment struct {
	ID          string            `json:"id"`
	TeacherID   string            `json:"teacherId"`
	StudentID   string            `json:"studentId"`
	TeacherName string            `json:"teacherName"`
	StudentName string            `json:"studentName"`
	Day         Weekday           `json:"day"`
	Date        string            `json:"date"`
	StartTime   string            `json:"startTime"`
	EndTime     string            `json:"endTime"`
	Status      AppointmentStatus `json:"status"`
	Message     string            `json:"message,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

// ScheduledAt дата+время начала встречи в заданной зоне
func (a *Appointment) ScheduledAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" 15:04", a.Date+" "+a.StartTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Slot слот, на который записан студент
func (a *Appointment) Slot() TimeSlot {
	return TimeSlot{Day: a.Day, StartTime: a.StartTime, EndTime: a.EndTime}
}

// NextOccurrence ближайшая дата дня недели day начиная с from (включительно)
func NextOccurrence(day Weekday, from time.Time) time.Time {
	// time.Weekday: Sunday = 0; Weekdays: Monday = 0
	target := (day.Index() + 1) % 7
	diff := (target - int(from.Weekday()) + 7) % 7
	d := from.AddDate(0, 0, diff)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, from.Location())
}
