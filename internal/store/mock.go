// internal/store/mock.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Mock is an in-memory test double for Store.
type Mock struct {
	mu      sync.Mutex
	data    map[string]string
	readErr map[string]error
	closed  bool
}

// NewMock creates a mock store holding the given entries.
func NewMock(entries map[string]string) *Mock {
	m := &Mock{
		data:    make(map[string]string, len(entries)),
		readErr: make(map[string]error),
	}
	for k, v := range entries {
		m.data[k] = v
	}
	return m
}

func (m *Mock) Read(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", false, ErrClosed
	}
	if err := m.readErr[key]; err != nil {
		return "", false, err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Mock) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.data[key] = value
	return nil
}

func (m *Mock) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *Mock) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// FailRead makes reads of key return err.
func (m *Mock) FailRead(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr[key] = err
}

// Get returns the stored value without going through Read.
func (m *Mock) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
