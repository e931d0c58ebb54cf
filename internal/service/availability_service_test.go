package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slot(day model.Weekday, start, end string) model.TimeSlot {
	return model.TimeSlot{Day: day, StartTime: start, EndTime: end}
}

func TestAvailabilityService_AddSlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "t1", "Ada", "Computing", nil, nil)
	svc := NewAvailabilityService(env.users, env.directory, env.validator, env.logger)

	t.Run("adjacent slots do not overlap", func(t *testing.T) {
		_, err := svc.AddSlot(ctx, actorOf(teacher), teacher.ID, slot(model.Monday, "10:00", "11:00"))
		require.NoError(t, err)
		got, err := svc.AddSlot(ctx, actorOf(teacher), teacher.ID, slot(model.Monday, "09:00", "10:00"))
		require.NoError(t, err)

		assert.Equal(t, []model.TimeSlot{
			slot(model.Monday, "09:00", "10:00"),
			slot(model.Monday, "10:00", "11:00"),
		}, got[model.Monday])
	})

	t.Run("overlap is rejected and stored availability unchanged", func(t *testing.T) {
		_, before, err := svc.Get(ctx, teacher.ID)
		require.NoError(t, err)

		_, err = svc.AddSlot(ctx, actorOf(teacher), teacher.ID, slot(model.Monday, "09:30", "10:30"))
		assert.ErrorIs(t, err, model.ErrOverlap)

		_, after, err := svc.Get(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("same time on another day is fine", func(t *testing.T) {
		got, err := svc.AddSlot(ctx, actorOf(teacher), teacher.ID, slot(model.Tuesday, "09:30", "10:30"))
		require.NoError(t, err)
		assert.Len(t, got[model.Tuesday], 1)
	})

	t.Run("only the owner may edit", func(t *testing.T) {
		other := env.addTeacher(t, "t2", "Grace", "Computing", nil, nil)
		student := env.addStudent(t, "s1", "Emmy", "Algebra")

		for _, actor := range []model.Actor{actorOf(other), actorOf(student), adminActor} {
			_, err := svc.AddSlot(ctx, actor, teacher.ID, slot(model.Friday, "09:00", "10:00"))
			assert.ErrorIs(t, err, model.ErrPermission, "actor %s", actor.ID)
		}
	})

	t.Run("slot form is validated", func(t *testing.T) {
		tests := []struct {
			name  string
			slot  model.TimeSlot
			field string
		}{
			{name: "unknown day", slot: slot("Funday", "09:00", "10:00"), field: "day"},
			{name: "bad time", slot: slot(model.Monday, "9am", "10:00"), field: "startTime"},
			{name: "end before start", slot: slot(model.Monday, "11:00", "10:00"), field: "endTime"},
			{name: "empty slot", slot: slot(model.Monday, "11:00", "11:00"), field: "endTime"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.AddSlot(ctx, actorOf(teacher), teacher.ID, tt.slot)
				require.ErrorIs(t, err, model.ErrValidation)

				var vErr *model.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Contains(t, vErr.Fields, tt.field)
			})
		}
	})

	t.Run("missing teacher", func(t *testing.T) {
		ghost := model.Actor{ID: "ghost", Role: model.RoleTeacher}
		_, err := svc.AddSlot(ctx, ghost, "ghost", slot(model.Monday, "09:00", "10:00"))
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestAvailabilityService_RemoveSlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "t1", "Ada", "Computing", nil, model.Availability{
		model.Monday: {slot(model.Monday, "09:00", "10:00"), slot(model.Monday, "11:00", "12:00")},
		model.Friday: {slot(model.Friday, "09:00", "10:00")},
	})
	svc := NewAvailabilityService(env.users, env.directory, env.validator, env.logger)

	t.Run("removes by index", func(t *testing.T) {
		got, err := svc.RemoveSlot(ctx, actorOf(teacher), teacher.ID, model.Monday, 0)
		require.NoError(t, err)
		assert.Equal(t, []model.TimeSlot{slot(model.Monday, "11:00", "12:00")}, got[model.Monday])
	})

	t.Run("removing last slot of a day removes the day", func(t *testing.T) {
		got, err := svc.RemoveSlot(ctx, actorOf(teacher), teacher.ID, model.Friday, 0)
		require.NoError(t, err)
		_, present := got[model.Friday]
		assert.False(t, present)

		_, stored, err := svc.Get(ctx, teacher.ID)
		require.NoError(t, err)
		_, present = stored[model.Friday]
		assert.False(t, present)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := svc.RemoveSlot(ctx, actorOf(teacher), teacher.ID, model.Monday, 5)
		assert.ErrorIs(t, err, model.ErrSlotIndex)

		_, err = svc.RemoveSlot(ctx, actorOf(teacher), teacher.ID, model.Sunday, 0)
		assert.ErrorIs(t, err, model.ErrSlotIndex)
	})

	t.Run("only the owner may remove", func(t *testing.T) {
		_, err := svc.RemoveSlot(ctx, adminActor, teacher.ID, model.Monday, 0)
		assert.ErrorIs(t, err, model.ErrPermission)
	})
}

func TestAvailabilityService_InvalidatesTeacherDirectory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	teacher := env.addTeacher(t, "t1", "Ada", "Computing", nil, nil)
	student := env.addStudent(t, "s1", "Emmy", "Algebra")

	accounts := NewAccountService(env.users, &mockProvider{}, env.directory, env.validator, env.logger)
	availability := NewAvailabilityService(env.users, env.directory, env.validator, env.logger)

	listed, err := accounts.ListDirectory(ctx, actorOf(student), model.RoleTeacher, "")
	require.NoError(t, err)
	assert.Empty(t, AvailableTeachers(listed))

	_, err = availability.AddSlot(ctx, actorOf(teacher), teacher.ID, slot(model.Monday, "09:00", "10:00"))
	require.NoError(t, err)

	listed, err = accounts.ListDirectory(ctx, actorOf(student), model.RoleTeacher, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(AvailableTeachers(listed)))
}
