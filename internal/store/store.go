// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
)

// CollectionsKey is the single key holding every collection
const CollectionsKey = "screenCollections"

// ErrCollectionNotFound is returned by Get and Delete for an unknown id
var ErrCollectionNotFound = errors.New("collection not found")

// Options configures a Store
type Options struct {
	QuotaBytes int64
	WarnRatio  float64
	Now        func() time.Time
}

// Store holds all collections as one JSON array on a Backend. It assumes
// it is the only writer of its key; the mutex serialises writers within
// this process.
type Store struct {
	backend Backend
	quota   int64
	warn    float64
	now     func() time.Time
	mu      sync.Mutex
}

// New creates a Store on backend
func New(backend Backend, opts Options) *Store {
	if opts.QuotaBytes <= 0 {
		opts.QuotaBytes = config.DefaultQuotaBytes
	}
	if opts.WarnRatio <= 0 || opts.WarnRatio > 1 {
		opts.WarnRatio = config.DefaultWarnRatio
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend: backend,
		quota:   opts.QuotaBytes,
		warn:    opts.WarnRatio,
		now:     opts.Now,
	}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Close closes the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// List returns every collection, most recently added first
func (s *Store) List(ctx context.Context) ([]models.ScreenCollection, error) {
	collections, _, err := s.load(ctx)
	return collections, err
}

// Get returns the collection with the given id, or with that name
func (s *Store) Get(ctx context.Context, id string) (*models.ScreenCollection, error) {
	collections, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(collections, id); i >= 0 {
		c := collections[i]
		return &c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
}

// Save upserts a freshly scraped collection and persists the whole sequence
// in one write. Nothing is written when the result would exceed the quota.
func (s *Store) Save(ctx context.Context, meta models.ScreenCollectionMeta, screens []string) (models.SaveResult, error) {
	if len(screens) == 0 {
		return models.SaveResult{}, engine.NewEngineError(engine.ErrCodeNoScreens, engine.MsgNoScreens, nil)
	}

	incoming := models.ScreenCollection{
		ID:          CollectionID(meta.SourceURL, meta.Name),
		Name:        meta.Name,
		LogoURL:     meta.LogoURL,
		SourceURL:   meta.SourceURL,
		Screens:     append([]string(nil), screens...),
		ScreenCount: len(screens),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _, err := s.load(ctx)
	if err != nil {
		return models.SaveResult{}, err
	}

	updated, isUpdate := Upsert(existing, incoming, s.now())
	size, err := s.write(ctx, updated)
	if err != nil {
		return models.SaveResult{}, err
	}

	log.Info().
		Str("id", incoming.ID).
		Str("name", incoming.Name).
		Int("screens", incoming.ScreenCount).
		Bool("update", isUpdate).
		Int("bytes", size).
		Msg("Collection saved")

	return models.SaveResult{
		ID:       incoming.ID,
		AppName:  incoming.Name,
		Count:    incoming.ScreenCount,
		IsUpdate: isUpdate,
	}, nil
}

// Delete removes the collection with the given id or name
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collections, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(collections, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}

	remaining := make([]models.ScreenCollection, 0, len(collections)-1)
	remaining = append(remaining, collections[:i]...)
	remaining = append(remaining, collections[i+1:]...)

	_, err = s.write(ctx, remaining)
	return err
}

// Clear removes every collection
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, CollectionsKey); err != nil {
		return storageError(err)
	}
	log.Info().Str("backend", s.backend.Name()).Msg("Store cleared")
	return nil
}

// Usage reports the stored size against the quota
func (s *Store) Usage(ctx context.Context) (models.StorageUsage, error) {
	_, size, err := s.load(ctx)
	if err != nil {
		return models.StorageUsage{}, err
	}
	return s.usage(int64(size)), nil
}

func (s *Store) usage(size int64) models.StorageUsage {
	percent := float64(size) / float64(s.quota) * 100
	return models.StorageUsage{
		BytesInUse:  size,
		QuotaBytes:  s.quota,
		PercentUsed: percent,
		NearLimit:   float64(size) >= float64(s.quota)*s.warn,
	}
}

// load returns the stored collections and the blob size
func (s *Store) load(ctx context.Context) ([]models.ScreenCollection, int, error) {
	data, err := s.backend.Get(ctx, CollectionsKey)
	if errors.Is(err, ErrNotFound) {
		return []models.ScreenCollection{}, 0, nil
	}
	if err != nil {
		return nil, 0, storageError(err)
	}

	var collections []models.ScreenCollection
	if err := json.Unmarshal(data, &collections); err != nil {
		return nil, 0, engine.NewEngineError(engine.ErrCodeStorage, "stored collections are corrupted", err).
			WithDetail("backend", s.backend.Name())
	}
	if collections == nil {
		collections = []models.ScreenCollection{}
	}
	return collections, len(data), nil
}

func (s *Store) write(ctx context.Context, collections []models.ScreenCollection) (int, error) {
	data, err := json.Marshal(collections)
	if err != nil {
		return 0, engine.NewEngineError(engine.ErrCodeStorage, "failed to encode collections", err)
	}

	if int64(len(data)) > s.quota {
		return 0, quotaError(int64(len(data)), s.quota, nil)
	}

	if err := s.backend.Set(ctx, CollectionsKey, data); err != nil {
		if errors.Is(err, ErrBackendFull) {
			return 0, quotaError(int64(len(data)), s.quota, err)
		}
		return 0, storageError(err)
	}

	if u := s.usage(int64(len(data))); u.NearLimit {
		log.Warn().
			Int64("bytes_in_use", u.BytesInUse).
			Float64("percent_used", u.PercentUsed).
			Msg("Store is nearly full")
	}

	return len(data), nil
}

func indexOf(collections []models.ScreenCollection, id string) int {
	for i, c := range collections {
		if c.ID == id {
			return i
		}
	}
	for i, c := range collections {
		if c.Name == id {
			return i
		}
	}
	return -1
}

func quotaError(size, quota int64, err error) error {
	return engine.NewEngineError(engine.ErrCodeQuota, engine.MsgQuota, err).
		WithDetail("bytes", size).
		WithDetail("quota_bytes", quota)
}

func storageError(err error) error {
	return engine.NewEngineError(engine.ErrCodeStorage, "failed to access store", err)
}
