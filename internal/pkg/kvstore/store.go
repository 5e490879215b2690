// Package kvstore is the local key-value store the cart is persisted in.
// A Get on a missing key returns an empty string and a nil error.
package kvstore

import (
	"context"
	"fmt"
	"sync"
)

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

// Memory keeps values in process memory. Used by tests and the "memory" backend.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *Memory) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Open builds the backend named by kind. The returned close function
// releases connections and is never nil.
func Open(kind, sqlitePath, redisAddr, namespace string) (Store, func() error, error) {
	switch kind {
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	case "redis":
		r := NewRedis(redisAddr, namespace)
		return r, r.Close, nil
	case "sqlite", "":
		s, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("kvstore: unknown backend %q", kind)
	}
}
