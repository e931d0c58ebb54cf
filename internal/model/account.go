package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
	AccountStatusRejected AccountStatus = "rejected"
)

func (s AccountStatus) IsValid() bool {
	return s == AccountStatusPending || s == AccountStatusApproved || s == AccountStatusRejected
}

// Права администратора по умолчанию
var DefaultAdminPermissions = []string{"manage_teachers", "manage_students", "manage_appointments"}

// Profile ролевая часть аккаунта. Реализации: *TeacherProfile, *StudentProfile, *AdminProfile.
type Profile interface {
	Role() Role
	validate() error
}

type TeacherProfile struct {
	Department   string       `json:"department"`
	Subjects     []string     `json:"subjects"`
	Availability Availability `json:"availability"`
}

func (p *TeacherProfile) Role() Role { return RoleTeacher }

func (p *TeacherProfile) validate() error {
	if strings.TrimSpace(p.Department) == "" {
		return NewValidationError("department", "this field is required")
	}
	for day, slots := range p.Availability {
		if !day.IsValid() {
			return NewValidationError("availability", fmt.Sprintf("unknown weekday %q", day))
		}
		// слоты дня могут быть не отсортированы
		for i := range slots {
			for j := i + 1; j < len(slots); j++ {
				if slots[i].Overlaps(slots[j]) {
					return NewValidationError("availability", fmt.Sprintf("overlapping slots on %s", day))
				}
			}
		}
	}
	return nil
}

type StudentProfile struct {
	Department      string   `json:"department"`
	EnrolledClasses []string `json:"enrolledClasses"`
}

func (p *StudentProfile) Role() Role { return RoleStudent }

func (p *StudentProfile) validate() error { return nil }

type AdminProfile struct {
	Permissions []string `json:"permissions"`
}

func (p *AdminProfile) Role() Role { return RoleAdmin }

func (p *AdminProfile) validate() error { return nil }

// Account пользователь системы. Role определяется вариантом Profile и не меняется.
type Account struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Role           Role          `json:"role"`
	Status         AccountStatus `json:"status"`
	TelegramChatID *int64        `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	Profile        Profile       `json:"-"`
}

// NewAccount собирает аккаунт из ролевого профиля и проверяет его
func NewAccount(id, email, name string, profile Profile, createdAt time.Time) (*Account, error) {
	if profile == nil {
		return nil, NewValidationError("role", "profile is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "this field is required")
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}

	return &Account{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		Role:      profile.Role(),
		Status:    AccountStatusApproved,
		CreatedAt: createdAt,
		Profile:   profile,
	}, nil
}

// Teacher возвращает профиль учителя, если аккаунт учительский
func (a *Account) Teacher() (*TeacherProfile, bool) {
	p, ok := a.Profile.(*TeacherProfile)
	return p, ok
}

// Student возвращает профиль студента, если аккаунт студенческий
func (a *Account) Student() (*StudentProfile, bool) {
	p, ok := a.Profile.(*StudentProfile)
	return p, ok
}

func (a *Account) Admin() (*AdminProfile, bool) {
	p, ok := a.Profile.(*AdminProfile)
	return p, ok
}

func (a *Account) IsApproved() bool {
	return a.Status == AccountStatusApproved
}

// Department отдел учителя или студента, пусто для администратора
func (a *Account) Department() string {
	switch p := a.Profile.(type) {
	case *TeacherProfile:
		return p.Department
	case *StudentProfile:
		return p.Department
	}
	return ""
}

// Subjects предметы учителя
func (a *Account) Subjects() []string {
	if p, ok := a.Teacher(); ok {
		return p.Subjects
	}
	return nil
}

// Actor кто выполняет операцию; передаётся явно в каждый вызов сервиса
type Actor struct {
	ID   string
	Role Role
	Name string
}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}

// accountJSON внешнее представление: поля профиля на верхнем уровне
type accountJSON struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Role           Role          `json:"role"`
	Status         AccountStatus `json:"status"`
	TelegramChatID *int64        `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`

	Department      string       `json:"department,omitempty"`
	Subjects        []string     `json:"subjects,omitempty"`
	Availability    Availability `json:"availability,omitempty"`
	EnrolledClasses []string     `json:"enrolledClasses,omitempty"`
	Permissions     []string     `json:"permissions,omitempty"`
}

func (a Account) MarshalJSON() ([]byte, error) {
	out := accountJSON{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		Role:           a.Role,
		Status:         a.Status,
		TelegramChatID: a.TelegramChatID,
		CreatedAt:      a.CreatedAt,
	}
	switch p := a.Profile.(type) {
	case *TeacherProfile:
		out.Department = p.Department
		out.Subjects = p.Subjects
		out.Availability = p.Availability
	case *StudentProfile:
		out.Department = p.Department
		out.EnrolledClasses = p.EnrolledClasses
	case *AdminProfile:
		out.Permissions = p.Permissions
	}
	return json.Marshal(out)
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var in accountJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*a = Account{
		ID:             in.ID,
		Email:          in.Email,
		Name:           in.Name,
		Role:           in.Role,
		Status:         in.Status,
		TelegramChatID: in.TelegramChatID,
		CreatedAt:      in.CreatedAt,
	}
	switch in.Role {
	case RoleTeacher:
		a.Profile = &TeacherProfile{Department: in.Department, Subjects: in.Subjects, Availability: in.Availability}
	case RoleStudent:
		a.Profile = &StudentProfile{Department: in.Department, EnrolledClasses: in.EnrolledClasses}
	case RoleAdmin:
		a.Profile = &AdminProfile{Permissions: in.Permissions}
	default:
		return fmt.Errorf("unknown role %q", in.Role)
	}
	return nil
}
