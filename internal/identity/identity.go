// Package identity провайдер идентификации: учётные данные с bcrypt-хешем,
// JWT-токены, привязанные к отзываемым сессиям, и живой поток изменений сессии.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/repository"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

// Identity аутентифицированный пользователь с точки зрения провайдера
type Identity struct {
	UID   string
	Email string
}

// Session выданный токен и его сессия
type Session struct {
	ID        string
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// Provider контракт провайдера идентификации
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*Session, error)
	// IdentityChanges текущая идентичность сессии и каждое её изменение; nil - вышел.
	// Канал закрывается при отмене ctx.
	IdentityChanges(ctx context.Context, sessionID string) (<-chan *Identity, error)
	SignOut(ctx context.Context, token string) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	credentials *repository.CredentialRepository
	sessions    *repository.SessionRepository
	secret      []byte
	ttl         time.Duration
	logger      *zap.Logger
	validate    *validator.Validate

	now        func() time.Time
	bcryptCost int
}

func NewService(
	credentials *repository.CredentialRepository,
	sessions *repository.SessionRepository,
	secret string,
	ttl time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		credentials: credentials,
		sessions:    sessions,
		secret:      []byte(secret),
		ttl:         ttl,
		logger:      logger,
		validate:    validator.New(),
		now:         time.Now,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, model.NewAuthError(model.AuthOpSignUp, model.AuthCodeInvalidEmail)
	}
	if len(password) < MinPasswordLength {
		return nil, model.NewAuthError(model.AuthOpSignUp, model.AuthCodeWeakPassword)
	}

	existing, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewAuthError(model.AuthOpSignUp, model.AuthCodeEmailAlreadyInUse)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &repository.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("Identity created", zap.String("uid", cred.ID))
	return &Identity{UID: cred.ID, Email: email}, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, model.NewAuthError(model.AuthOpSignIn, model.AuthCodeInvalidEmail)
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, model.NewAuthError(model.AuthOpSignIn, model.AuthCodeUserNotFound)
	}
	if cred.Disabled {
		return nil, model.NewAuthError(model.AuthOpSignIn, model.AuthCodeUserDisabled)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewAuthError(model.AuthOpSignIn, model.AuthCodeWrongPassword)
	}

	now := s.now().UTC()
	rec := &repository.Session{
		ID:        uuid.NewString(),
		AccountID: cred.ID,
		Email:     cred.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return nil, err
	}

	token, err := s.sign(rec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session started", zap.String("uid", cred.ID), zap.String("session_id", rec.ID))
	return &Session{
		ID:        rec.ID,
		Identity:  Identity{UID: cred.ID, Email: cred.Email},
		Token:     token,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *Service) sign(rec *repository.Session) (string, error) {
	claims := Claims{
		Email: rec.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.ID,
			Subject:   rec.AccountID,
			IssuedAt:  jwt.NewNumericDate(rec.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, model.NewAuthError(model.AuthOpVerify, model.AuthCodeInvalidToken)
	}
	return claims, nil
}

// Verify проверяет подпись, срок и что сессия не отозвана
func (s *Service) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	rec, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Revoked || rec.AccountID != claims.Subject {
		return nil, model.NewAuthError(model.AuthOpVerify, model.AuthCodeInvalidToken)
	}

	return &Session{
		ID:        rec.ID,
		Identity:  Identity{UID: rec.AccountID, Email: rec.Email},
		Token:     token,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAuthError(model.AuthOpVerify, model.AuthCodeInvalidToken)
		}
		return err
	}

	s.logger.Info("Session revoked", zap.String("uid", claims.Subject), zap.String("session_id", claims.ID))
	return nil
}

// SetDisabled блокировка также завершает все открытые сессии: их токены
// перестают проходить Verify, а наблюдатели IdentityChanges получают nil
func (s *Service) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	if err := s.credentials.SetDisabled(ctx, uid, disabled); err != nil {
		return err
	}

	revoked := 0
	if disabled {
		n, err := s.sessions.RevokeAll(ctx, uid)
		if err != nil {
			return err
		}
		revoked = n
	}

	s.logger.Info("Identity disabled flag changed",
		zap.String("uid", uid),
		zap.Bool("disabled", disabled),
		zap.Int("sessions_revoked", revoked))
	return nil
}

func (s *Service) IdentityChanges(ctx context.Context, sessionID string) (<-chan *Identity, error) {
	sub, err := s.sessions.Watch(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make(chan *Identity)
	go func() {
		defer close(out)
		defer sub.Close()

		first := true
		var last *Identity
		for docs := range sub.C() {
			current := s.currentIdentity(docs)
			if !first && sameIdentity(last, current) {
				continue
			}
			first = false
			last = current

			select {
			case out <- current:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *Service) currentIdentity(docs []store.Document) *Identity {
	if len(docs) == 0 {
		return nil
	}
	var rec repository.Session
	if err := docs[0].Decode(&rec); err != nil {
		s.logger.Warn("Failed to decode session", zap.Error(err))
		return nil
	}
	if rec.Revoked || !s.now().Before(rec.ExpiresAt) {
		return nil
	}
	return &Identity{UID: rec.AccountID, Email: rec.Email}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
