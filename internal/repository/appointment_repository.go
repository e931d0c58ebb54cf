package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository/base"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
)

const AppointmentsCollection = "appointments"

type appointmentDocument struct {
	ID          string                  `json:"id"`
	TeacherID   string                  `json:"teacherId"`
	StudentID   string                  `json:"studentId"`
	TeacherName string                  `json:"teacherName"`
	StudentName string                  `json:"studentName"`
	Day         model.Weekday           `json:"day"`
	Date        string                  `json:"date"`
	StartTime   string                  `json:"startTime"`
	EndTime     string                  `json:"endTime"`
	Status      model.AppointmentStatus `json:"status"`
	Message     string                  `json:"message,omitempty"`
	CreatedAt   string                  `json:"createdAt"`
	UpdatedAt   string                  `json:"updatedAt,omitempty"`
}

func toAppointmentDocument(a *model.Appointment) appointmentDocument {
	doc := appointmentDocument{
		ID:          a.ID,
		TeacherID:   a.TeacherID,
		StudentID:   a.StudentID,
		TeacherName: a.TeacherName,
		StudentName: a.StudentName,
		Day:         a.Day,
		Date:        a.Date,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Status:      a.Status,
		Message:     a.Message,
		CreatedAt:   store.Timestamp(a.CreatedAt),
	}
	if a.UpdatedAt != nil {
		doc.UpdatedAt = store.Timestamp(*a.UpdatedAt)
	}
	return doc
}

func (d appointmentDocument) toAppointment() (*model.Appointment, error) {
	createdAt, err := store.ParseTimestamp(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: parse createdAt: %w", d.ID, err)
	}

	a := &model.Appointment{
		ID:          d.ID,
		TeacherID:   d.TeacherID,
		StudentID:   d.StudentID,
		TeacherName: d.TeacherName,
		StudentName: d.StudentName,
		Day:         d.Day,
		Date:        d.Date,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Status:      d.Status,
		Message:     d.Message,
		CreatedAt:   createdAt,
	}
	if d.UpdatedAt != "" {
		updatedAt, err := store.ParseTimestamp(d.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: parse updatedAt: %w", d.ID, err)
		}
		a.UpdatedAt = &updatedAt
	}
	return a, nil
}

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(s store.Store) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(s, AppointmentsCollection)}
}

// Create сохраняет новую запись на встречу
func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if err := r.Put(ctx, appointment.ID, toAppointmentDocument(appointment)); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// GetByID nil если записи нет
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var doc appointmentDocument
	found, err := r.GetInto(ctx, id, &doc)
	if err != nil {
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.toAppointment()
}

// GetByTeacherID все записи учителя в порядке создания
func (r *AppointmentRepository) GetByTeacherID(ctx context.Context, teacherID string) ([]*model.Appointment, error) {
	appointments, err := r.list(ctx, store.Eq("teacherId", teacherID))
	if err != nil {
		return nil, fmt.Errorf("get teacher appointments: %w", err)
	}
	return appointments, nil
}

// GetByStudentID все записи студента в порядке создания
func (r *AppointmentRepository) GetByStudentID(ctx context.Context, studentID string) ([]*model.Appointment, error) {
	appointments, err := r.list(ctx, store.Eq("studentId", studentID))
	if err != nil {
		return nil, fmt.Errorf("get student appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) GetAll(ctx context.Context) ([]*model.Appointment, error) {
	appointments, err := r.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) list(ctx context.Context, filters ...store.Filter) ([]*model.Appointment, error) {
	docs, err := r.Query(ctx, filters)
	if err != nil {
		return nil, err
	}
	decoded, err := base.DecodeAll[appointmentDocument](docs)
	if err != nil {
		return nil, err
	}

	appointments := make([]*model.Appointment, 0, len(decoded))
	for _, d := range decoded {
		a, err := d.toAppointment()
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, nil
}

// UpdateStatus пишет только status и updatedAt
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, updatedAt time.Time) error {
	err := r.Update(ctx, id, map[string]any{
		"status":    status,
		"updatedAt": store.Timestamp(updatedAt),
	})
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}
