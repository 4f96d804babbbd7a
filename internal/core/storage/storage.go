// Package storage holds keyed values for the lifetime of a process.
package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrExists   = errors.New("key already exists")
	ErrEmptyKey = errors.New("empty key")
)

type Storage[V any] interface {
	Create(ctx context.Context, key string, value V) error
	Read(ctx context.Context, key string) (V, error)
	Update(ctx context.Context, key string, value V) error
	Delete(ctx context.Context, key string) error

	Statistics() Statistics
}

type Statistics struct {
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	Evictions uint64 `json:"evictions"`
}

var _ Storage[struct{}] = (*Memory[struct{}])(nil)

// Memory is a bounded in-memory Storage. Once full, Create evicts the
// oldest key. A capacity of 0 means unbounded.
type Memory[V any] struct {
	mu        sync.Mutex
	capacity  int
	entries   map[string]V
	order     []string
	evictions uint64
}

func NewMemory[V any](capacity int) *Memory[V] {
	return &Memory[V]{
		capacity: capacity,
		entries:  make(map[string]V),
	}
}

func (m *Memory[V]) Create(ctx context.Context, key string, value V) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		return ErrExists
	}
	if m.capacity > 0 && len(m.entries) >= m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
		m.evictions++
	}
	m.entries[key] = value
	m.order = append(m.order, key)
	return nil
}

func (m *Memory[V]) Read(ctx context.Context, key string) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[key]
	if !ok {
		return zero, ErrNotFound
	}
	return v, nil
}

func (m *Memory[V]) Update(ctx context.Context, key string, value V) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	m.entries[key] = value
	return nil
}

func (m *Memory[V]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory[V]) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Statistics{
		Entries:   len(m.entries),
		Capacity:  m.capacity,
		Evictions: m.evictions,
	}
}
