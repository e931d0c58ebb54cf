package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/cache"
	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"go.uber.org/zap"
)

// FilterDirectory регистронезависимый поиск подстроки по имени, email, отделу и предметам.
// Порядок входа сохраняется, пустой запрос возвращает всё.
func FilterDirectory(accounts []*model.Account, query string) []*model.Account {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return accounts
	}

	out := make([]*model.Account, 0, len(accounts))
	for _, a := range accounts {
		if matchesQuery(a, q) {
			out = append(out, a)
		}
	}
	return out
}

func matchesQuery(a *model.Account, q string) bool {
	if strings.Contains(strings.ToLower(a.Name), q) ||
		strings.Contains(strings.ToLower(a.Email), q) ||
		strings.Contains(strings.ToLower(a.Department()), q) {
		return true
	}
	for _, subject := range a.Subjects() {
		if strings.Contains(strings.ToLower(subject), q) {
			return true
		}
	}
	return false
}

// AvailableTeachers одобренные учителя хотя бы с одним слотом (страница записи студента)
func AvailableTeachers(accounts []*model.Account) []*model.Account {
	out := make([]*model.Account, 0, len(accounts))
	for _, a := range accounts {
		t, ok := a.Teacher()
		if !ok || !a.IsApproved() || !t.Availability.HasSlots() {
			continue
		}
		out = append(out, a)
	}
	return out
}

func filterApproved(accounts []*model.Account) []*model.Account {
	out := make([]*model.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.IsApproved() {
			out = append(out, a)
		}
	}
	return out
}

// CountPending счётчик для панели администратора
func CountPending(accounts []*model.Account) int {
	n := 0
	for _, a := range accounts {
		if a.Status == model.AccountStatusPending {
			n++
		}
	}
	return n
}

// DirectoryCache списки пользователей по ролям поверх cache.Cache
type DirectoryCache struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewDirectoryCache(c cache.Cache, ttl time.Duration, logger *zap.Logger) *DirectoryCache {
	if c == nil {
		c = cache.Nop{}
	}
	return &DirectoryCache{cache: c, ttl: ttl, logger: logger}
}

func directoryKey(role model.Role) string {
	return "directory:" + string(role)
}

func (d *DirectoryCache) get(ctx context.Context, role model.Role) ([]*model.Account, bool) {
	data, ok := d.cache.Get(ctx, directoryKey(role))
	if !ok {
		return nil, false
	}
	var accounts []*model.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		d.logger.Warn("Dropping corrupt directory cache entry", zap.String("role", string(role)), zap.Error(err))
		d.cache.Delete(ctx, directoryKey(role))
		return nil, false
	}
	return accounts, true
}

func (d *DirectoryCache) set(ctx context.Context, role model.Role, accounts []*model.Account) {
	data, err := json.Marshal(accounts)
	if err != nil {
		d.logger.Warn("Failed to encode directory cache entry", zap.String("role", string(role)), zap.Error(err))
		return
	}
	d.cache.Set(ctx, directoryKey(role), data, d.ttl)
}

// Invalidate сбрасывает списки указанных ролей
func (d *DirectoryCache) Invalidate(ctx context.Context, roles ...model.Role) {
	keys := make([]string, 0, len(roles))
	for _, r := range roles {
		keys = append(keys, directoryKey(r))
	}
	d.cache.Delete(ctx, keys...)
}
