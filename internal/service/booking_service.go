package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/events"
	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/notify"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestAppointmentInput запрос студента на слот учителя
type RequestAppointmentInput struct {
	TeacherID string        `json:"teacherId" validate:"required,notblank"`
	Day       model.Weekday `json:"day" validate:"required,weekday"`
	StartTime string        `json:"startTime" validate:"required,hhmm"`
	EndTime   string        `json:"endTime" validate:"required,hhmm"`
	// Date "YYYY-MM-DD"; пусто - ближайший такой день недели
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Message string `json:"message" validate:"max=500"`
}

type Dashboard struct {
	Upcoming []*model.Appointment `json:"upcoming"`
	Recent   []*model.Appointment `json:"recent"`
	Pending  []*model.Appointment `json:"pending"`
}

type BookingService struct {
	users        *repository.UserRepository
	appointments *repository.AppointmentRepository
	notifier     notify.Notifier
	publisher    events.Publisher
	validator    *Validator
	logger       *zap.Logger
	loc          *time.Location
	now          func() time.Time
}

func NewBookingService(
	users *repository.UserRepository,
	appointments *repository.AppointmentRepository,
	notifier notify.Notifier,
	publisher events.Publisher,
	validator *Validator,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		users:        users,
		appointments: appointments,
		notifier:     notifier,
		publisher:    publisher,
		validator:    validator,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
	}
}

// RequestAppointment создаёт запись в статусе pending.
// Двойное бронирование не запрещено, опубликованность слота не проверяется.
func (s *BookingService) RequestAppointment(ctx context.Context, actor model.Actor, in RequestAppointmentInput) (*model.Appointment, error) {
	if !actor.Is(model.RoleStudent) {
		return nil, fmt.Errorf("request appointment: %w", model.ErrPermission)
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if in.StartTime >= in.EndTime {
		return nil, model.NewValidationError("endTime", "end time must be after start time")
	}
	if in.Date != "" {
		date, err := time.ParseInLocation(model.DateLayout, in.Date, s.loc)
		if err != nil {
			return nil, model.NewValidationError("date", "must be a date in YYYY-MM-DD format")
		}
		if model.WeekdayOf(date) != in.Day {
			return nil, model.NewValidationError("date", fmt.Sprintf("date must fall on %s", in.Day))
		}
	}

	teacher, err := s.users.GetByID(ctx, in.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || teacher.Role != model.RoleTeacher {
		return nil, fmt.Errorf("teacher %s: %w", in.TeacherID, model.ErrNotFound)
	}

	now := s.now()
	date := in.Date
	if date == "" {
		date = model.NextOccurrence(in.Day, now.In(s.loc)).Format(model.DateLayout)
	}

	studentName := actor.Name
	if studentName == "" {
		if student, err := s.users.GetByID(ctx, actor.ID); err == nil && student != nil {
			studentName = student.Name
		}
	}

	appointment := &model.Appointment{
		ID:          uuid.NewString(),
		TeacherID:   teacher.ID,
		StudentID:   actor.ID,
		TeacherName: teacher.Name,
		StudentName: studentName,
		Day:         in.Day,
		Date:        date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Status:      model.AppointmentStatusPending,
		Message:     strings.TrimSpace(in.Message),
		CreatedAt:   now.UTC(),
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment requested",
		zap.String("appointment_id", appointment.ID),
		zap.String("student_id", actor.ID),
		zap.String("teacher_id", teacher.ID),
		zap.String("date", date),
		zap.String("slot", appointment.Slot().String()),
	)

	s.notify(ctx, teacher, notify.AppointmentRequestedText(appointment))
	s.publish(ctx, events.NewAppointmentEvent(events.TypeAppointmentRequested, appointment, "", now))

	return appointment, nil
}

// SetStatus решение учителя по записи. Права проверяются до статуса:
// чужой актор получает ErrPermission при любом целевом статусе.
func (s *BookingService) SetStatus(ctx context.Context, actor model.Actor, appointmentID string, status model.AppointmentStatus) (*model.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, fmt.Errorf("appointment %s: %w", appointmentID, model.ErrNotFound)
	}

	if !actor.Is(model.RoleTeacher) || appointment.TeacherID != actor.ID {
		return nil, fmt.Errorf("set status of appointment %s: %w", appointmentID, model.ErrPermission)
	}

	prev := appointment.Status
	if !prev.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, prev, status)
	}

	now := s.now()
	if err := s.appointments.UpdateStatus(ctx, appointmentID, status, now.UTC()); err != nil {
		return nil, err
	}
	updatedAt := now.UTC()
	appointment.Status = status
	appointment.UpdatedAt = &updatedAt

	s.logger.Info("Appointment status changed",
		zap.String("appointment_id", appointmentID),
		zap.String("teacher_id", actor.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
	)

	if student, err := s.users.GetByID(ctx, appointment.StudentID); err != nil {
		s.logger.Warn("Failed to load student for notification", zap.String("student_id", appointment.StudentID), zap.Error(err))
	} else {
		s.notify(ctx, student, notify.AppointmentStatusText(appointment))
	}
	s.publish(ctx, events.NewAppointmentEvent(events.TypeAppointmentStatusChanged, appointment, prev, now))

	return appointment, nil
}

// ListForActor записи участника по возрастанию даты; администратор видит все
func (s *BookingService) ListForActor(ctx context.Context, actor model.Actor) ([]*model.Appointment, error) {
	var appointments []*model.Appointment
	var err error

	switch actor.Role {
	case model.RoleTeacher:
		appointments, err = s.appointments.GetByTeacherID(ctx, actor.ID)
	case model.RoleStudent:
		appointments, err = s.appointments.GetByStudentID(ctx, actor.ID)
	case model.RoleAdmin:
		appointments, err = s.appointments.GetAll(ctx)
	default:
		return nil, fmt.Errorf("list appointments: %w", model.ErrPermission)
	}
	if err != nil {
		return nil, err
	}

	return SortBySchedule(appointments, s.loc), nil
}

// Upcoming одобренные будущие встречи участника
func (s *BookingService) Upcoming(ctx context.Context, actor model.Actor) ([]*model.Appointment, error) {
	appointments, err := s.ListForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return Upcoming(appointments, s.now(), s.loc), nil
}

// Dashboard предстоящие, недавние и ожидающие решения записи
func (s *BookingService) Dashboard(ctx context.Context, actor model.Actor) (*Dashboard, error) {
	appointments, err := s.ListForActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &Dashboard{
		Upcoming: Upcoming(appointments, now, s.loc),
		Recent:   Recent(appointments, now, s.loc, RecentLimit),
		Pending:  Pending(appointments, s.loc),
	}, nil
}

// notify ошибка доставки не отменяет операцию
func (s *BookingService) notify(ctx context.Context, recipient *model.Account, text string) {
	if recipient == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, text); err != nil {
		s.logger.Warn("Failed to send notification", zap.String("account_id", recipient.ID), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, event events.AppointmentEvent) {
	if err := s.publisher.PublishAppointment(ctx, event); err != nil {
		s.logger.Warn("Failed to publish appointment event",
			zap.String("appointment_id", event.AppointmentID),
			zap.String("type", event.Type),
			zap.Error(err))
	}
}
