package base

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/store"
)

// Repository базовый репозиторий над одной коллекцией хранилища
type Repository struct {
	store      store.Store
	collection string
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(s store.Store, collection string) *Repository {
	return &Repository{store: s, collection: collection}
}

func (r *Repository) Store() store.Store {
	return r.store
}

func (r *Repository) Collection() string {
	return r.collection
}

// GetInto декодирует документ в v; false если документа нет
func (r *Repository) GetInto(ctx context.Context, id string, v any) (bool, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	if err := doc.Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

// Query выполняет запрос по коллекции
func (r *Repository) Query(ctx context.Context, filters []store.Filter, opts ...store.QueryOption) ([]store.Document, error) {
	return r.store.Query(ctx, r.collection, filters, opts...)
}

func (r *Repository) Put(ctx context.Context, id string, data any) error {
	return r.store.Put(ctx, r.collection, id, data)
}

// Update частичное обновление; отсутствующий документ -> model.ErrNotFound
func (r *Repository) Update(ctx context.Context, id string, fields map[string]any) error {
	err := r.store.Update(ctx, r.collection, id, fields)
	if IsNotFound(err) {
		return fmt.Errorf("%s %s: %w", r.collection, id, model.ErrNotFound)
	}
	return err
}

func (r *Repository) Listen(ctx context.Context, filters []store.Filter, opts ...store.QueryOption) (*store.Subscription, error) {
	return r.store.Listen(ctx, r.collection, filters, opts...)
}

// IsNotFound проверяет является ли ошибка "документ не найден"
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// DecodeAll декодирует документы в срез значений T
func DecodeAll[T any](docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i := range docs {
		var v T
		if err := docs[i].Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
