package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/identity"
	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"go.uber.org/zap"
)

// RegisterInput форма регистрации (и создания аккаунта администратором)
type RegisterInput struct {
	Email      string     `json:"email" validate:"required"`
	Password   string     `json:"password" validate:"required"`
	Name       string     `json:"name" validate:"required,notblank"`
	Role       model.Role `json:"role" validate:"required,oneof=teacher student"`
	Department string     `json:"department" validate:"required,notblank"`
	Subjects   []string   `json:"subjects" validate:"omitempty,dive,notblank"`
}

func (in RegisterInput) profile() model.Profile {
	if in.Role == model.RoleTeacher {
		subjects := make([]string, 0, len(in.Subjects))
		for _, s := range in.Subjects {
			subjects = append(subjects, strings.TrimSpace(s))
		}
		return &model.TeacherProfile{
			Department:   strings.TrimSpace(in.Department),
			Subjects:     subjects,
			Availability: model.Availability{},
		}
	}
	return &model.StudentProfile{Department: strings.TrimSpace(in.Department), EnrolledClasses: []string{}}
}

type SignInResult struct {
	Session *identity.Session
	Account *model.Account
}

type AccountService struct {
	users     *repository.UserRepository
	identity  identity.Provider
	directory *DirectoryCache
	validator *Validator
	logger    *zap.Logger
	now       func() time.Time
}

func NewAccountService(
	users *repository.UserRepository,
	identityProvider identity.Provider,
	directory *DirectoryCache,
	validator *Validator,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		identity:  identityProvider,
		directory: directory,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// Register самостоятельная регистрация учителя или студента
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	return s.create(ctx, in)
}

// Provision администратор создаёт аккаунт учителя или студента
func (s *AccountService) Provision(ctx context.Context, actor model.Actor, in RegisterInput) (*model.Account, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, fmt.Errorf("provision account: %w", model.ErrPermission)
	}

	account, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account provisioned by admin",
		zap.String("admin_id", actor.ID),
		zap.String("account_id", account.ID))
	return account, nil
}

func (s *AccountService) create(ctx context.Context, in RegisterInput) (*model.Account, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	// Сначала проверяем профиль, чтобы не создавать идентичность без профиля
	if _, err := model.NewAccount("", in.Email, in.Name, in.profile(), s.now()); err != nil {
		return nil, err
	}

	id, err := s.identity.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	account, err := model.NewAccount(id.UID, id.Email, in.Name, in.profile(), s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, account); err != nil {
		return nil, err
	}

	s.directory.Invalidate(ctx, account.Role)

	s.logger.Info("Account created",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)))
	return account, nil
}

// SignIn вход по email и паролю; идентичность без профиля - ErrNotFound
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	session, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	account, err := s.users.GetByID(ctx, session.Identity.UID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("user profile not found: %w", model.ErrNotFound)
	}

	s.logger.Info("User signed in", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))
	return &SignInResult{Session: session, Account: account}, nil
}

// Authenticate проверяет токен и загружает аккаунт его владельца
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.Account, *identity.Session, error) {
	session, err := s.identity.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.users.GetByID(ctx, session.Identity.UID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, model.NewAuthError(model.AuthOpVerify, model.AuthCodeUserNotFound)
	}
	// отклонённый аккаунт не проходит даже со старым токеном
	if account.Status == model.AccountStatusRejected {
		return nil, nil, model.NewAuthError(model.AuthOpVerify, model.AuthCodeUserDisabled)
	}
	return account, session, nil
}

func (s *AccountService) SignOut(ctx context.Context, token string) error {
	return s.identity.SignOut(ctx, token)
}

// IdentityChanges поток изменений сессии для клиента
func (s *AccountService) IdentityChanges(ctx context.Context, sessionID string) (<-chan *identity.Identity, error) {
	return s.identity.IdentityChanges(ctx, sessionID)
}

// Get nil, ErrNotFound если аккаунта нет
func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", id, model.ErrNotFound)
	}
	return account, nil
}

func (s *AccountService) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error) {
	return s.users.GetByTelegramChatID(ctx, chatID)
}

// SetAccountStatus только администратор; rejected также блокирует вход
func (s *AccountService) SetAccountStatus(ctx context.Context, actor model.Actor, id string, status model.AccountStatus) (*model.Account, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, fmt.Errorf("set account status: %w", model.ErrPermission)
	}
	if !status.IsValid() {
		return nil, model.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	account.Status = status

	if err := s.identity.SetDisabled(ctx, id, status == model.AccountStatusRejected); err != nil {
		// профиль уже обновлён; вход останется в прежнем состоянии
		s.logger.Error("Failed to update identity disabled flag", zap.String("account_id", id), zap.Error(err))
	}

	s.directory.Invalidate(ctx, account.Role)

	s.logger.Info("Account status changed",
		zap.String("admin_id", actor.ID),
		zap.String("account_id", id),
		zap.String("status", string(status)))
	return account, nil
}

// ListDirectory список пользователей роли с фильтром.
// Студенты видят только одобренных учителей, учителя - студентов, администратор - всех.
func (s *AccountService) ListDirectory(ctx context.Context, actor model.Actor, role model.Role, query string) ([]*model.Account, error) {
	var accounts []*model.Account
	var err error

	switch actor.Role {
	case model.RoleAdmin:
		if role == "" {
			accounts, err = s.users.ListAll(ctx)
		} else {
			accounts, err = s.accountsByRole(ctx, role)
		}
	case model.RoleStudent:
		if role != model.RoleTeacher {
			return nil, fmt.Errorf("list %s accounts: %w", role, model.ErrPermission)
		}
		accounts, err = s.accountsByRole(ctx, role)
		accounts = filterApproved(accounts)
	case model.RoleTeacher:
		if role != model.RoleStudent {
			return nil, fmt.Errorf("list %s accounts: %w", role, model.ErrPermission)
		}
		accounts, err = s.accountsByRole(ctx, role)
	default:
		return nil, fmt.Errorf("list accounts: %w", model.ErrPermission)
	}
	if err != nil {
		return nil, err
	}

	return FilterDirectory(accounts, query), nil
}

func (s *AccountService) accountsByRole(ctx context.Context, role model.Role) ([]*model.Account, error) {
	if !role.IsValid() {
		return nil, model.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	if cached, ok := s.directory.get(ctx, role); ok {
		return cached, nil
	}

	accounts, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	s.directory.set(ctx, role, accounts)
	return accounts, nil
}

// RefreshDirectory перечитывает списки учителей и студентов в кэш
func (s *AccountService) RefreshDirectory(ctx context.Context) error {
	for _, role := range []model.Role{model.RoleTeacher, model.RoleStudent} {
		accounts, err := s.users.ListByRole(ctx, role)
		if err != nil {
			return fmt.Errorf("refresh %s directory: %w", role, err)
		}
		s.directory.set(ctx, role, accounts)
	}
	return nil
}

// LinkTelegram привязывает чат для уведомлений
func (s *AccountService) LinkTelegram(ctx context.Context, actor model.Actor, chatID int64) error {
	if chatID == 0 {
		return model.NewValidationError("chatId", "this field is required")
	}
	if err := s.users.SetTelegramChatID(ctx, actor.ID, chatID); err != nil {
		return err
	}

	s.logger.Info("Telegram chat linked", zap.String("account_id", actor.ID), zap.Int64("chat_id", chatID))
	return nil
}

// EnsureAdmin создаёт администратора при старте, если его ещё нет
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password, name string) (*model.Account, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			return nil, fmt.Errorf("bootstrap admin: %s already registered as %s", email, existing.Role)
		}
		return existing, nil
	}

	uid := ""
	id, err := s.identity.CreateAccount(ctx, email, password)
	var authErr *model.AuthError
	switch {
	case err == nil:
		uid = id.UID
	case errors.As(err, &authErr) && authErr.Code == model.AuthCodeEmailAlreadyInUse:
		// идентичность осталась от прошлого запуска без профиля
		session, err := s.identity.Authenticate(ctx, email, password)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		uid = session.Identity.UID
	default:
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	permissions := append([]string(nil), model.DefaultAdminPermissions...)
	account, err := model.NewAccount(uid, email, name, &model.AdminProfile{Permissions: permissions}, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Admin account bootstrapped", zap.String("account_id", account.ID))
	return account, nil
}
