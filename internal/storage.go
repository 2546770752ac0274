package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Fixed keys for persisted client state
const (
	KeyChatHistory    = "chatHistory"
	KeyClientID       = "clientId"
	KeyToken          = "token"
	KeyCurrentUser    = "currentUser"
	KeyPendingHandoff = "pendingHandoff"
)

// ErrNotFound is returned by a KVStore when the key is absent
var ErrNotFound = errors.New("key not found")

// KVStore is the persistence port: keyed blobs, single writer per key
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON loads key and decodes it into v
func GetJSON(ctx context.Context, store KVStore, key string, v interface{}) error {
	data, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ParseError{Source: "store", Key: key, Err: err}
	}
	return nil
}

// PutJSON encodes v and stores it under key
func PutJSON(ctx context.Context, store KVStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return store.Put(ctx, key, data)
}

// MemoryStore is an in-process KVStore
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get implements KVStore
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements KVStore
func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Delete implements KVStore
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements KVStore
func (m *MemoryStore) Close() error {
	return nil
}

// Keys returns the stored keys
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// OpenStore opens the configured KVStore backend
func OpenStore(backend, path string) (KVStore, error) {
	switch backend {
	case "", "sqlite":
		s, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		s, err := OpenBoltStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: sqlite, bolt, memory)", backend)
	}
}
