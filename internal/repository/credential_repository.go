package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/repository/base"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
)

const (
	CredentialsCollection = "credentials"
	SessionsCollection    = "sessions"
)

// Credential учётные данные для входа; id совпадает с id пользователя
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CredentialRepository struct {
	*base.Repository
}

func NewCredentialRepository(s store.Store) *CredentialRepository {
	return &CredentialRepository{Repository: base.NewRepository(s, CredentialsCollection)}
}

func (r *CredentialRepository) Create(ctx context.Context, c *Credential) error {
	if err := r.Put(ctx, c.ID, c); err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	docs, err := r.Query(ctx, []store.Filter{store.Eq("email", email)})
	if err != nil {
		return nil, fmt.Errorf("get credential by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var c Credential
	if err := docs[0].Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	if err := r.Update(ctx, id, map[string]any{"disabled": disabled}); err != nil {
		return fmt.Errorf("set credential disabled: %w", err)
	}
	return nil
}

// Session вход пользователя; отзыв сессии - это "выход" для всех её наблюдателей
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Revoked   bool      `json:"revoked"`
}

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(s store.Store) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(s, SessionsCollection)}
}

func (r *SessionRepository) Create(ctx context.Context, s *Session) error {
	if err := r.Put(ctx, s.ID, s); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.GetInto(ctx, id, &s)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	if err := r.Update(ctx, id, map[string]any{"revoked": true}); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll отзывает все открытые сессии аккаунта, возвращает их число
func (r *SessionRepository) RevokeAll(ctx context.Context, accountID string) (int, error) {
	docs, err := r.Query(ctx, []store.Filter{store.Eq("accountId", accountID)})
	if err != nil {
		return 0, fmt.Errorf("list sessions of %s: %w", accountID, err)
	}
	sessions, err := base.DecodeAll[Session](docs)
	if err != nil {
		return 0, fmt.Errorf("decode sessions: %w", err)
	}

	revoked := 0
	for _, s := range sessions {
		if s.Revoked {
			continue
		}
		if err := r.Revoke(ctx, s.ID); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

// Watch снимки одной сессии (0 или 1 документ) при каждом изменении коллекции
func (r *SessionRepository) Watch(ctx context.Context, id string) (*store.Subscription, error) {
	sub, err := r.Listen(ctx, []store.Filter{store.Eq("id", id)})
	if err != nil {
		return nil, fmt.Errorf("watch session: %w", err)
	}
	return sub, nil
}
