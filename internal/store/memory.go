package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// MemoryStore хранилище в памяти процесса, для тестов и локального запуска
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryDoc
	seq         int64
	hub         *hub
	now         func() time.Time
}

type memoryDoc struct {
	doc    Document
	fields map[string]any
	seq    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memoryDoc),
		hub:         newHub(),
		now:         time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	doc := d.doc
	return &doc, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters []Filter, opts ...QueryOption) ([]Document, error) {
	o := buildOptions(opts)
	wanted, err := normalizeFilters(filters)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	var matched []*memoryDoc
	for _, d := range s.collections[collection] {
		if matchFilters(d.fields, wanted) {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq < matched[j].seq
	})
	if o.orderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessValue(matched[i].fields[o.orderBy], matched[j].fields[o.orderBy])
		})
	}

	docs := make([]Document, 0, len(matched))
	for _, d := range matched {
		docs = append(docs, d.doc)
	}
	return docs, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, data any) error {
	raw, err := marshalData(data)
	if err != nil {
		return err
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*memoryDoc)
	}
	now := s.now()
	d, ok := s.collections[collection][id]
	if !ok {
		s.seq++
		d = &memoryDoc{seq: s.seq, doc: Document{ID: id, CreatedAt: now}}
		s.collections[collection][id] = d
	}
	d.doc.Data = raw
	d.doc.UpdatedAt = now
	d.fields = fields
	s.mu.Unlock()

	s.hub.publish(collection)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := marshalData(fields)
	if err != nil {
		return err
	}
	patchFields, err := decodeFields(patch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	d, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}
	merged := make(map[string]any, len(d.fields)+len(patchFields))
	for k, v := range d.fields {
		merged[k] = v
	}
	for k, v := range patchFields {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal document: %w", err)
	}
	d.fields = merged
	d.doc.Data = raw
	d.doc.UpdatedAt = s.now()
	s.mu.Unlock()

	s.hub.publish(collection)
	return nil
}

func (s *MemoryStore) Listen(ctx context.Context, collection string, filters []Filter, opts ...QueryOption) (*Subscription, error) {
	if _, err := normalizeFilters(filters); err != nil {
		return nil, err
	}
	signals, unsubscribe := s.hub.subscribe(collection)
	return startSubscription(ctx, signals, unsubscribe, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, filters, opts...)
	}), nil
}

func decodeFields(raw []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return fields, nil
}

// normalizeFilters приводит значения фильтров к виду после json-декодирования
func normalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.Op != OpEqual && f.Op != OpArrayContains {
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal filter %s: %w", f.Field, err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("unmarshal filter %s: %w", f.Field, err)
		}
		out = append(out, Filter{Field: f.Field, Op: f.Op, Value: v})
	}
	return out, nil
}

func matchFilters(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(v, f.Value) {
				return false
			}
		case OpArrayContains:
			arr, ok := v.([]any)
			if !ok {
				return false
			}
			found := false
			for _, item := range arr {
				if reflect.DeepEqual(item, f.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// lessValue как ORDER BY в postgres: отсутствующее поле последним
func lessValue(a, b any) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case bool:
		bv, ok := b.(bool)
		return ok && !av && bv
	}
	return false
}
