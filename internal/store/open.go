package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/screengrab/internal/config"
)

// OpenBackend selects a backend from a store URL:
//
//	file://            ~/.screengrab
//	file:///var/data   absolute directory
//	file://./data      relative directory
//	keyring://         OS keyring, service from the host part or the config
//	redis://host:6379/0, rediss://...
//	mem://             process memory
func OpenBackend(ctx context.Context, rawURL string, cfg *config.Config) (Backend, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("invalid store URL %q: missing scheme", rawURL)
	}

	switch scheme {
	case "file":
		dir := rest
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve home directory: %w", err)
			}
			dir = filepath.Join(home, config.DefaultStoreDir)
		}
		return NewFileBackend(dir)

	case "keyring":
		service := config.DefaultKeyringService
		if cfg != nil && cfg.KeyringService != "" {
			service = cfg.KeyringService
		}
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			service = u.Host
		}
		return NewKeyringBackend(service), nil

	case "redis", "rediss":
		return NewRedisBackend(ctx, rawURL)

	case "mem", "memory":
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

// Open opens the backend named by cfg.StoreURL and wraps it in a Store
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	backend, err := OpenBackend(ctx, cfg.StoreURL, cfg)
	if err != nil {
		return nil, err
	}
	return New(backend, Options{QuotaBytes: cfg.QuotaBytes, WarnRatio: cfg.WarnRatio}), nil
}
