// Package store документное хранилище: коллекции JSON-документов с
// фильтрами на равенство, частичным обновлением и живыми подписками.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("document not found")

// TimeLayout фиксированной ширины, чтобы строки времени сортировались лексикографически
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp форматирует время для хранения в документе
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTimestamp разбирает время, сохранённое через Timestamp (или любое RFC3339)
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode распаковывает данные документа в v
func (d *Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func ArrayContains(field string, value any) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

type queryOptions struct {
	orderBy string
}

type QueryOption func(*queryOptions)

// OrderBy сортировка по полю документа по возрастанию; без неё - порядок вставки
func OrderBy(field string) QueryOption {
	return func(o *queryOptions) {
		o.orderBy = field
	}
}

func buildOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store контракт документного хранилища
type Store interface {
	// Get возвращает nil, nil если документа нет
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, filters []Filter, opts ...QueryOption) ([]Document, error)
	// Put полностью перезаписывает документ
	Put(ctx context.Context, collection, id string, data any) error
	// Update сливает поля верхнего уровня; ErrNotFound если документа нет
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Listen(ctx context.Context, collection string, filters []Filter, opts ...QueryOption) (*Subscription, error)
}

func marshalData(data any) ([]byte, error) {
	switch v := data.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return raw, nil
}

// containment собирает JSON-объект для оператора @> из фильтров
func containment(filters []Filter) ([]byte, error) {
	obj := make(map[string]any, len(filters))
	for _, f := range filters {
		switch f.Op {
		case OpEqual:
			obj[f.Field] = f.Value
		case OpArrayContains:
			obj[f.Field] = []any{f.Value}
		default:
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return json.Marshal(obj)
}
