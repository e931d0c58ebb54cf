package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestNewAccount(t *testing.T) {
	t.Run("role comes from profile", func(t *testing.T) {
		a, err := NewAccount("t1", " Ada@Campus.EDU ", " Ada ", &TeacherProfile{Department: "Computing"}, created)
		require.NoError(t, err)
		assert.Equal(t, RoleTeacher, a.Role)
		assert.Equal(t, "ada@campus.edu", a.Email)
		assert.Equal(t, "Ada", a.Name)
		assert.Equal(t, AccountStatusApproved, a.Status)
		assert.Equal(t, "Computing", a.Department())
	})

	tests := []struct {
		name    string
		profile Profile
		acct    string
		field   string
	}{
		{name: "missing profile", profile: nil, acct: "Ada", field: "role"},
		{name: "blank name", profile: &StudentProfile{}, acct: " ", field: "name"},
		{name: "teacher without department", profile: &TeacherProfile{}, acct: "Ada", field: "department"},
		{name: "overlapping availability", profile: &TeacherProfile{
			Department: "Computing",
			Availability: Availability{Monday: {
				{Day: Monday, StartTime: "09:00", EndTime: "10:00"},
				{Day: Monday, StartTime: "09:30", EndTime: "11:00"},
			}},
		}, acct: "Ada", field: "availability"},
		{name: "unsorted overlapping availability", profile: &TeacherProfile{
			Department: "Computing",
			Availability: Availability{Tuesday: {
				{Day: Tuesday, StartTime: "09:00", EndTime: "10:00"},
				{Day: Tuesday, StartTime: "11:00", EndTime: "12:00"},
				{Day: Tuesday, StartTime: "09:30", EndTime: "10:30"},
			}},
		}, acct: "Ada", field: "availability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccount("x", "x@campus.edu", tt.acct, tt.profile, created)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Contains(t, vErr.Fields, tt.field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAccount_JSON(t *testing.T) {
	chat := int64(42)
	teacher, err := NewAccount("t1", "ada@campus.edu", "Ada", &TeacherProfile{
		Department:   "Computing",
		Subjects:     []string{"Algorithms"},
		Availability: Availability{Monday: {{Day: Monday, StartTime: "09:00", EndTime: "10:00"}}},
	}, created)
	require.NoError(t, err)
	teacher.TelegramChatID = &chat

	data, err := json.Marshal(teacher)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "Computing", flat["department"])
	assert.Equal(t, "teacher", flat["role"])
	assert.NotContains(t, flat, "permissions")

	var decoded Account
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, teacher, &decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","role":"janitor"}`), &decoded))
}

func TestAuthError(t *testing.T) {
	err := error(NewAuthError(AuthOpSignIn, AuthCodeWrongPassword))
	assert.ErrorIs(t, err, ErrAuth)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Failed to sign in. Incorrect password.", authErr.Message())

	unknown := NewAuthError(AuthOpSignUp, "auth/quota-exceeded")
	assert.Equal(t, "Failed to create account. Unexpected error (auth/quota-exceeded).", unknown.Message())
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"startTime": "bad", "day": "required"}}
	assert.Equal(t, "validation failed: day: required; startTime: bad", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}

func TestAppointmentStatus_CanTransition(t *testing.T) {
	statuses := []AppointmentStatus{
		AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusRejected, AppointmentStatusCompleted,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := from == AppointmentStatusPending && (to == AppointmentStatusApproved || to == AppointmentStatusRejected)
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	wednesday := time.Date(2024, 3, 6, 15, 30, 0, 0, loc)

	tests := []struct {
		day  Weekday
		want string
	}{
		{day: Wednesday, want: "2024-03-06"},
		{day: Thursday, want: "2024-03-07"},
		{day: Sunday, want: "2024-03-10"},
		{day: Monday, want: "2024-03-11"},
		{day: Tuesday, want: "2024-03-12"},
	}
	for _, tt := range tests {
		got := NextOccurrence(tt.day, wednesday)
		assert.Equal(t, tt.want, got.Format(DateLayout), string(tt.day))
		assert.Equal(t, loc, got.Location())
	}
}

func TestAppointment_ScheduledAt(t *testing.T) {
	a := &Appointment{Date: "2024-03-11", StartTime: "09:30"}
	got, ok := a.ScheduledAt(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC), got)

	a.Date = "11.03.2024"
	_, ok = a.ScheduledAt(time.UTC)
	assert.False(t, ok)
}
