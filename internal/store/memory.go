package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"skillswap-backend/internal/common"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-process Store. It backs local development and tests and
// implements the same live-query semantics as the remote backends.
type Memory struct {
	mu       sync.RWMutex
	docs     map[string]map[string]Fields // collection -> id -> fields
	watchers map[*memoryStream]struct{}
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]map[string]Fields),
		watchers: make(map[*memoryStream]struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the document at path.
func (m *Memory) Get(ctx context.Context, path string) (*Document, error) {
	collection, id := SplitDoc(path)

	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", path, common.ErrNotFound)
	}
	return &Document{ID: id, Path: path, Fields: cloneFields(fields)}, nil
}

// GetMany runs a one-shot query.
func (m *Memory) GetMany(ctx context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query(q), nil
}

// Create adds a document with a generated id.
func (m *Memory) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	id := ulid.Make().String()

	m.mu.Lock()
	m.put(collection, id, fields.resolve(m.now()))
	m.mu.Unlock()

	m.notify(collection)
	return id, nil
}

// CreateIfAbsent writes the document only if the path is free.
func (m *Memory) CreateIfAbsent(ctx context.Context, path string, fields Fields) error {
	collection, id := SplitDoc(path)

	m.mu.Lock()
	if _, exists := m.docs[collection][id]; exists {
		m.mu.Unlock()
		return fmt.Errorf("document %s: %w", path, common.ErrAlreadyExists)
	}
	m.put(collection, id, fields.resolve(m.now()))
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

// Set replaces or merges the document at path.
func (m *Memory) Set(ctx context.Context, path string, fields Fields, opts SetOptions) error {
	collection, id := SplitDoc(path)
	resolved := fields.resolve(m.now())

	m.mu.Lock()
	if existing, ok := m.docs[collection][id]; ok && opts.Merge {
		for k, v := range cloneFields(resolved) {
			existing[k] = v
		}
	} else {
		m.put(collection, id, resolved)
	}
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

// Subscribe opens a live query.
func (m *Memory) Subscribe(ctx context.Context, q Query) (Stream, error) {
	s := &memoryStream{
		store:   m,
		query:   q,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	// the first Next returns the current result set
	s.changed <- struct{}{}

	m.mu.Lock()
	m.watchers[s] = struct{}{}
	m.mu.Unlock()
	return s, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) put(collection, id string, fields Fields) {
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]Fields)
	}
	m.docs[collection][id] = cloneFields(fields)
}

func (m *Memory) notify(collection string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for s := range m.watchers {
		if s.query.Collection != collection {
			continue
		}
		select {
		case s.changed <- struct{}{}:
		default:
		}
	}
}

// query must be called with m.mu held.
func (m *Memory) query(q Query) []Document {
	var out []Document
	for id, fields := range m.docs[q.Collection] {
		if !matches(fields, q.Filters) {
			continue
		}
		out = append(out, Document{ID: id, Path: Join(q.Collection, id), Fields: cloneFields(fields)})
	}

	sort.Slice(out, func(i, j int) bool {
		if q.OrderBy != nil {
			c := compareValues(out[i].Fields[q.OrderBy.Field], out[j].Fields[q.OrderBy.Field])
			if c != 0 {
				if q.OrderBy.Desc {
					return c > 0
				}
				return c < 0
			}
			// ids are ULIDs, so creation order breaks ties
			if q.OrderBy.Desc {
				return out[i].ID > out[j].ID
			}
		}
		return out[i].ID < out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (m *Memory) removeWatcher(s *memoryStream) {
	m.mu.Lock()
	delete(m.watchers, s)
	m.mu.Unlock()
}

type memoryStream struct {
	store   *Memory
	query   Query
	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *memoryStream) Next(ctx context.Context) ([]Document, error) {
	select {
	case <-s.changed:
	case <-s.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return s.store.query(s.query), nil
}

func (s *memoryStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.store.removeWatcher(s)
	})
}

func matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(fields[f.Field], f.Value) {
				return false
			}
		case OpArrayContains:
			if !arrayContains(fields[f.Field], f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func arrayContains(arr, value any) bool {
	switch v := arr.(type) {
	case []string:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, item := range v {
			if item == s {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if reflect.DeepEqual(item, value) {
				return true
			}
		}
	}
	return false
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case int:
		bv, _ := b.(int)
		return av - bv
	case int64:
		bv, _ := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	if b == nil {
		return 0
	}
	// missing field sorts first
	return -1
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}
