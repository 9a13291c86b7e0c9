// Package prefs provides small string key/value stores for user
// preferences. Every backend reports failures as ErrUnavailable so callers
// can treat a missing keyring, a read-only home directory and a corrupt
// file the same way.
package prefs

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable wraps every backend failure.
var ErrUnavailable = errors.New("preference storage unavailable")

// Storage is a string key/value store.
type Storage interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}

// Backend names accepted by Open.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Open creates the named backend. path is used by the file backend and
// service by the keyring backend.
func Open(backend, path, service string) (Storage, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStorage(path), nil
	case BackendKeyring:
		return NewKeyringStorage(service), nil
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// MemoryStorage keeps values for the lifetime of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
