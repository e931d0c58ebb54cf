package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/identity"
	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const traceHeader = "X-Trace-Id"

type ctxKey int

const (
	loggerKey ctxKey = iota
	accountKey
	sessionKey
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap нужен http.ResponseController для Flush в SSE
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// NewLoggingMiddleware trace id на запрос и строка в лог после ответа
func NewLoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID, err := uuid.NewV7()
			if err != nil {
				traceID = uuid.New()
			}

			r.Header.Set(traceHeader, traceID.String())
			reqLogger := logger.With(zap.String("trace_id", traceID.String()))
			r = r.WithContext(context.WithValue(r.Context(), loggerKey, reqLogger))

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			w.Header().Set(traceHeader, traceID.String())

			next.ServeHTTP(sw, r)

			reqLogger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func loggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return fallback
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Account, *identity.Session, error)
}

// bearerToken из заголовка Authorization; для EventSource допускается ?access_token=
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

// NewAuthMiddleware проверяет токен и кладёт аккаунт и сессию в контекст
func NewAuthMiddleware(auth authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)
			if token == "" {
				loggerFrom(ctx, logger).Info("no authorization header", zap.String("path", r.URL.Path))
				writeErrorJSON(w, http.StatusUnauthorized, "authorization required")
				return
			}

			account, session, err := auth.Authenticate(ctx, token)
			if err != nil {
				var authErr *model.AuthError
				if errors.As(err, &authErr) {
					loggerFrom(ctx, logger).Info("token rejected",
						zap.String("path", r.URL.Path),
						zap.String("code", authErr.Code))
					writeErrorJSON(w, http.StatusUnauthorized, authErr.Message())
					return
				}
				loggerFrom(ctx, logger).Error("error while authenticating request",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.Error(err),
				)
				writeErrorJSON(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}

			ctx = context.WithValue(ctx, accountKey, account)
			ctx = context.WithValue(ctx, sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только указанные роли
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := accountFrom(r.Context())
			for _, role := range roles {
				if account != nil && account.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeErrorJSON(w, http.StatusForbidden, "You do not have permission to perform this action.")
		})
	}
}

func accountFrom(ctx context.Context) *model.Account {
	a, _ := ctx.Value(accountKey).(*model.Account)
	return a
}

func sessionFrom(ctx context.Context) *identity.Session {
	s, _ := ctx.Value(sessionKey).(*identity.Session)
	return s
}

func actorFrom(ctx context.Context) model.Actor {
	a := accountFrom(ctx)
	if a == nil {
		return model.Actor{}
	}
	return model.Actor{ID: a.ID, Role: a.Role, Name: a.Name}
}
