package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository/base"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
)

const UsersCollection = "users"

// userDocument плоский документ пользователя: поля профиля лежат на верхнем уровне
type userDocument struct {
	ID             string              `json:"id"`
	Email          string              `json:"email"`
	Name           string              `json:"name"`
	Role           model.Role          `json:"role"`
	Status         model.AccountStatus `json:"status"`
	CreatedAt      string              `json:"createdAt"`
	TelegramChatID *int64              `json:"telegramChatId,omitempty"`

	Department      string             `json:"department,omitempty"`
	Subjects        []string           `json:"subjects,omitempty"`
	Availability    model.Availability `json:"availability,omitempty"`
	EnrolledClasses []string           `json:"enrolledClasses,omitempty"`
	Permissions     []string           `json:"permissions,omitempty"`
}

func toUserDocument(a *model.Account) userDocument {
	doc := userDocument{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		Role:           a.Role,
		Status:         a.Status,
		CreatedAt:      store.Timestamp(a.CreatedAt),
		TelegramChatID: a.TelegramChatID,
	}

	switch p := a.Profile.(type) {
	case *model.TeacherProfile:
		doc.Department = p.Department
		doc.Subjects = p.Subjects
		doc.Availability = p.Availability
	case *model.StudentProfile:
		doc.Department = p.Department
		doc.EnrolledClasses = p.EnrolledClasses
	case *model.AdminProfile:
		doc.Permissions = p.Permissions
	}
	return doc
}

func (d userDocument) toAccount() (*model.Account, error) {
	createdAt, err := store.ParseTimestamp(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user %s: parse createdAt: %w", d.ID, err)
	}

	var profile model.Profile
	switch d.Role {
	case model.RoleTeacher:
		profile = &model.TeacherProfile{Department: d.Department, Subjects: d.Subjects, Availability: d.Availability}
	case model.RoleStudent:
		profile = &model.StudentProfile{Department: d.Department, EnrolledClasses: d.EnrolledClasses}
	case model.RoleAdmin:
		profile = &model.AdminProfile{Permissions: d.Permissions}
	default:
		return nil, fmt.Errorf("user %s: unknown role %q", d.ID, d.Role)
	}

	// Документы из хранилища не перепроверяются: хранимое состояние доверенное
	return &model.Account{
		ID:             d.ID,
		Email:          d.Email,
		Name:           d.Name,
		Role:           d.Role,
		Status:         d.Status,
		TelegramChatID: d.TelegramChatID,
		CreatedAt:      createdAt,
		Profile:        profile,
	}, nil
}

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(s, UsersCollection)}
}

// Create сохраняет нового пользователя (id уже выдан провайдером идентификации)
func (r *UserRepository) Create(ctx context.Context, account *model.Account) error {
	if err := r.Put(ctx, account.ID, toUserDocument(account)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID получает пользователя по ID; nil если не найден
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var doc userDocument
	found, err := r.GetInto(ctx, id, &doc)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.toAccount()
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	accounts, err := r.list(ctx, store.Eq("email", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// GetByTelegramChatID пользователь, привязавший этот чат
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error) {
	accounts, err := r.list(ctx, store.Eq("telegramChatId", chatID))
	if err != nil {
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// ListByRole все пользователи роли в порядке регистрации
func (r *UserRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error) {
	accounts, err := r.list(ctx, store.Eq("role", role))
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return accounts, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*model.Account, error) {
	accounts, err := r.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return accounts, nil
}

func (r *UserRepository) list(ctx context.Context, filters ...store.Filter) ([]*model.Account, error) {
	docs, err := r.Query(ctx, filters)
	if err != nil {
		return nil, err
	}
	decoded, err := base.DecodeAll[userDocument](docs)
	if err != nil {
		return nil, err
	}

	accounts := make([]*model.Account, 0, len(decoded))
	for _, d := range decoded {
		a, err := d.toAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status model.AccountStatus) error {
	err := r.Update(ctx, id, map[string]any{
		"status":    status,
		"updatedAt": store.Timestamp(time.Now()),
	})
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// UpdateAvailability перезаписывает поле availability целиком
func (r *UserRepository) UpdateAvailability(ctx context.Context, id string, availability model.Availability) error {
	if availability == nil {
		availability = model.Availability{}
	}
	err := r.Update(ctx, id, map[string]any{
		"availability": availability,
		"updatedAt":    store.Timestamp(time.Now()),
	})
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

func (r *UserRepository) SetTelegramChatID(ctx context.Context, id string, chatID int64) error {
	if err := r.Update(ctx, id, map[string]any{"telegramChatId": chatID}); err != nil {
		return fmt.Errorf("set telegram chat id: %w", err)
	}
	return nil
}
