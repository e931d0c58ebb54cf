package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"go.uber.org/zap"
)

// AvailabilityService еженедельное расписание учителя.
// Чтение-изменение-запись без блокировок: при параллельных правках побеждает последняя запись.
type AvailabilityService struct {
	users     *repository.UserRepository
	directory *DirectoryCache
	validator *Validator
	logger    *zap.Logger
}

func NewAvailabilityService(
	users *repository.UserRepository,
	directory *DirectoryCache,
	validator *Validator,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		users:     users,
		directory: directory,
		validator: validator,
		logger:    logger,
	}
}

// Get расписание учителя
func (s *AvailabilityService) Get(ctx context.Context, teacherID string) (*model.Account, model.Availability, error) {
	teacher, profile, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	if profile.Availability == nil {
		return teacher, model.Availability{}, nil
	}
	return teacher, profile.Availability, nil
}

// AddSlot добавляет слот в расписание учителя-владельца
func (s *AvailabilityService) AddSlot(ctx context.Context, actor model.Actor, teacherID string, slot model.TimeSlot) (model.Availability, error) {
	if err := s.validator.Struct(slot); err != nil {
		return nil, err
	}
	if err := checkOwner(actor, teacherID); err != nil {
		return nil, err
	}

	_, profile, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	updated, err := profile.Availability.AddSlot(slot)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateAvailability(ctx, teacherID, updated); err != nil {
		return nil, err
	}
	s.directory.Invalidate(ctx, model.RoleTeacher)

	s.logger.Info("Availability slot added",
		zap.String("teacher_id", teacherID),
		zap.String("slot", slot.String()))
	return updated, nil
}

// RemoveSlot удаляет слот по позиции в дне
func (s *AvailabilityService) RemoveSlot(ctx context.Context, actor model.Actor, teacherID string, day model.Weekday, index int) (model.Availability, error) {
	if !day.IsValid() {
		return nil, model.NewValidationError("day", fmt.Sprintf("unknown weekday %q", day))
	}
	if err := checkOwner(actor, teacherID); err != nil {
		return nil, err
	}

	_, profile, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	updated, err := profile.Availability.RemoveSlot(day, index)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateAvailability(ctx, teacherID, updated); err != nil {
		return nil, err
	}
	s.directory.Invalidate(ctx, model.RoleTeacher)

	s.logger.Info("Availability slot removed",
		zap.String("teacher_id", teacherID),
		zap.String("day", string(day)),
		zap.Int("index", index))
	return updated, nil
}

func checkOwner(actor model.Actor, teacherID string) error {
	if !actor.Is(model.RoleTeacher) || actor.ID != teacherID {
		return fmt.Errorf("edit availability of %s: %w", teacherID, model.ErrPermission)
	}
	return nil
}

func (s *AvailabilityService) loadTeacher(ctx context.Context, teacherID string) (*model.Account, *model.TeacherProfile, error) {
	account, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("teacher %s: %w", teacherID, model.ErrNotFound)
	}
	profile, ok := account.Teacher()
	if !ok {
		return nil, nil, fmt.Errorf("teacher %s: %w", teacherID, model.ErrNotFound)
	}
	return account, profile, nil
}
