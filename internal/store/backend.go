package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Backend.Get for a missing key
	ErrNotFound = errors.New("key not found")
	// ErrBackendFull is returned when the backend itself refuses a value for size reasons
	ErrBackendFull = errors.New("backend storage full")
)

// Backend persists opaque blobs under string keys. Set must replace the
// whole value or leave the previous one untouched.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Name() string
	Close() error
}
