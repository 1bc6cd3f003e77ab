package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringBackend stores blobs as secrets in the OS keyring
type KeyringBackend struct {
	service string
}

// NewKeyringBackend uses service as the keyring service name
func NewKeyringBackend(service string) *KeyringBackend {
	return &KeyringBackend{service: service}
}

// Name returns the backend name
func (k *KeyringBackend) Name() string { return "keyring:" + k.service }

// Get reads the secret stored under key
func (k *KeyringBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from keyring: %w", err)
	}
	return []byte(v), nil
}

// Set replaces the secret under key
func (k *KeyringBackend) Set(ctx context.Context, key string, value []byte) error {
	err := keyring.Set(k.service, key, string(value))
	if errors.Is(err, keyring.ErrSetDataTooBig) {
		return fmt.Errorf("keyring rejected %d bytes: %w", len(value), ErrBackendFull)
	}
	if err != nil {
		return fmt.Errorf("failed to write to keyring: %w", err)
	}
	return nil
}

// Delete removes the secret under key. A missing secret is not an error.
func (k *KeyringBackend) Delete(ctx context.Context, key string) error {
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Close is a no-op
func (k *KeyringBackend) Close() error { return nil }
