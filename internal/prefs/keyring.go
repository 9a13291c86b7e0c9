package prefs

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService namespaces keyring entries.
const DefaultService = "backdrop"

// KeyringStorage keeps preferences in the OS secret store (Secret Service
// on Linux, Keychain on macOS, Credential Manager on Windows).
type KeyringStorage struct {
	service string
}

// NewKeyringStorage creates a KeyringStorage. An empty service uses
// DefaultService.
func NewKeyringStorage(service string) *KeyringStorage {
	if service == "" {
		service = DefaultService
	}
	return &KeyringStorage{service: service}
}

// Get implements Storage.
func (k *KeyringStorage) Get(key string) (string, bool, error) {
	v, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: keyring get %s/%s: %v", ErrUnavailable, k.service, key, err)
	}
	return v, true, nil
}

// Set implements Storage.
func (k *KeyringStorage) Set(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("%w: keyring set %s/%s: %v", ErrUnavailable, k.service, key, err)
	}
	return nil
}
