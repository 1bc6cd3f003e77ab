package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	*MemoryBackend
	setErr error
}

func (f *failingBackend) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryBackend.Set(ctx, key, value)
}

func clock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func meta(name, url string) models.ScreenCollectionMeta {
	return models.ScreenCollectionMeta{Name: name, LogoURL: "https://cdn.example.com/logo.png", SourceURL: url}
}

func TestStore_IdempotentRescrape(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), Options{Now: clock(time.UnixMilli(0))})
	screens := []string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png"}

	first, err := s.Save(ctx, meta("Spotify", "https://example.com/apps/ios/spotify"), screens)
	require.NoError(t, err)
	assert.False(t, first.IsUpdate)
	assert.Equal(t, "spotify", first.ID)

	before, err := s.Get(ctx, "spotify")
	require.NoError(t, err)

	second, err := s.Save(ctx, meta("Spotify", "https://example.com/apps/ios/spotify"), screens)
	require.NoError(t, err)
	assert.True(t, second.IsUpdate)
	assert.Equal(t, 2, second.Count)

	after, err := s.Get(ctx, "spotify")
	require.NoError(t, err)
	assert.Equal(t, before.Screens, after.Screens)
	assert.Equal(t, before.ScreenCount, after.ScreenCount)
	assert.Equal(t, before.DateAdded, after.DateAdded)
	assert.Greater(t, after.DateUpdated, before.DateUpdated)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_NewCollectionsGoFirst(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), Options{})

	_, err := s.Save(ctx, meta("A", "https://example.com/apps/a"), []string{"https://x/1.png"})
	require.NoError(t, err)
	_, err = s.Save(ctx, meta("B", "https://example.com/apps/b"), []string{"https://x/2.png"})
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
}

func TestStore_EmptyScreensRejected(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := New(backend, Options{})

	_, err := s.Save(ctx, meta("A", "https://example.com/apps/a"), nil)
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeNoScreens))

	_, err = backend.Get(ctx, CollectionsKey)
	assert.ErrorIs(t, err, ErrNotFound, "store must stay untouched")
}

func TestStore_QuotaErrorDistinctFromWriteFailure(t *testing.T) {
	ctx := context.Background()

	small := New(NewMemoryBackend(), Options{QuotaBytes: 64})
	_, err := small.Save(ctx, meta("Big", "https://example.com/apps/big"), []string{strings.Repeat("https://x/", 20)})
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeQuota))
	assert.Contains(t, engine.MessageOf(err), "quota")

	full := New(&failingBackend{MemoryBackend: NewMemoryBackend(), setErr: ErrBackendFull}, Options{})
	_, err = full.Save(ctx, meta("A", "https://example.com/apps/a"), []string{"https://x/1.png"})
	assert.True(t, engine.HasCode(err, engine.ErrCodeQuota))

	broken := New(&failingBackend{MemoryBackend: NewMemoryBackend(), setErr: errors.New("disk on fire")}, Options{})
	_, err = broken.Save(ctx, meta("A", "https://example.com/apps/a"), []string{"https://x/1.png"})
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeStorage))
	assert.NotContains(t, engine.MessageOf(err), "quota")
}

func TestStore_QuotaLeavesPriorContents(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := New(backend, Options{QuotaBytes: 400})

	_, err := s.Save(ctx, meta("A", "https://example.com/apps/a"), []string{"https://x/1.png"})
	require.NoError(t, err)
	before, _ := backend.Get(ctx, CollectionsKey)

	_, err = s.Save(ctx, meta("B", "https://example.com/apps/b"), []string{strings.Repeat("https://x/y", 50)})
	require.True(t, engine.HasCode(err, engine.ErrCodeQuota))

	after, _ := backend.Get(ctx, CollectionsKey)
	assert.Equal(t, before, after)
}

func TestStore_DeleteClearUsage(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), Options{QuotaBytes: 1000, WarnRatio: 0.8})

	_, err := s.Save(ctx, meta("A", "https://example.com/apps/a"), []string{"https://x/1.png"})
	require.NoError(t, err)
	_, err = s.Save(ctx, meta("B", "https://example.com/apps/b"), []string{"https://x/2.png"})
	require.NoError(t, err)

	u, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Greater(t, u.BytesInUse, int64(0))
	assert.Equal(t, int64(1000), u.QuotaBytes)
	assert.InDelta(t, float64(u.BytesInUse)/10, u.PercentUsed, 0.001)
	assert.False(t, u.NearLimit)

	require.NoError(t, s.Delete(ctx, "A"), "delete by name")
	err = s.Delete(ctx, "a")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	all, _ := s.List(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)

	require.NoError(t, s.Clear(ctx))
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	u, err = s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.BytesInUse)
}

func TestStore_NearLimit(t *testing.T) {
	s := New(NewMemoryBackend(), Options{QuotaBytes: 100, WarnRatio: 0.8})
	assert.True(t, s.usage(80).NearLimit)
	assert.False(t, s.usage(79).NearLimit)
}

func TestStore_CorruptedBlob(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, CollectionsKey, []byte("{not json")))

	_, err := New(backend, Options{}).List(ctx)
	assert.True(t, engine.HasCode(err, engine.ErrCodeStorage))
}
