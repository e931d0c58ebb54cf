package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/cache"
	"github.com/Freeeeeet/campus_scheduler/internal/events"
	"github.com/Freeeeeet/campus_scheduler/internal/identity"
	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error) {
	args := m.Called(ctx, email, password)
	id, _ := args.Get(0).(*identity.Identity)
	return id, args.Error(1)
}

func (m *mockProvider) Authenticate(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*identity.Session)
	return s, args.Error(1)
}

func (m *mockProvider) Verify(ctx context.Context, token string) (*identity.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*identity.Session)
	return s, args.Error(1)
}

func (m *mockProvider) IdentityChanges(ctx context.Context, sessionID string) (<-chan *identity.Identity, error) {
	args := m.Called(ctx, sessionID)
	ch, _ := args.Get(0).(<-chan *identity.Identity)
	return ch, args.Error(1)
}

func (m *mockProvider) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockProvider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return m.Called(ctx, uid, disabled).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, recipient *model.Account, text string) error {
	return m.Called(ctx, recipient, text).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAppointment(ctx context.Context, event events.AppointmentEvent) error {
	return m.Called(ctx, event).Error(0)
}

type testEnv struct {
	store        *store.MemoryStore
	users        *repository.UserRepository
	appointments *repository.AppointmentRepository
	messages     *repository.MessageRepository
	cache        *cache.LRUCache
	directory    *DirectoryCache
	validator    *Validator
	logger       *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	lru, err := cache.NewLRUCache(16)
	require.NoError(t, err)
	logger := zap.NewNop()

	return &testEnv{
		store:        st,
		users:        repository.NewUserRepository(st),
		appointments: repository.NewAppointmentRepository(st),
		messages:     repository.NewMessageRepository(st),
		cache:        lru,
		directory:    NewDirectoryCache(lru, time.Minute, logger),
		validator:    NewValidator(),
		logger:       logger,
	}
}

var createdAt = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func (e *testEnv) addTeacher(t *testing.T, id, name, department string, subjects []string, availability model.Availability) *model.Account {
	t.Helper()
	if availability == nil {
		availability = model.Availability{}
	}
	a, err := model.NewAccount(id, id+"@campus.edu", name, &model.TeacherProfile{
		Department:   department,
		Subjects:     subjects,
		Availability: availability,
	}, createdAt)
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), a))
	return a
}

func (e *testEnv) addStudent(t *testing.T, id, name, department string) *model.Account {
	t.Helper()
	a, err := model.NewAccount(id, id+"@campus.edu", name, &model.StudentProfile{Department: department}, createdAt)
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), a))
	return a
}

func actorOf(a *model.Account) model.Actor {
	return model.Actor{ID: a.ID, Role: a.Role, Name: a.Name}
}

var adminActor = model.Actor{ID: "admin-1", Role: model.RoleAdmin, Name: "Admin"}
