package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/screengrab/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set(ctx, "k", []byte(`[1]`)))
	require.NoError(t, b.Set(ctx, "k", []byte(`[1,2]`)))
	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(v))

	require.NoError(t, b.Delete(ctx, "k"))
	require.NoError(t, b.Delete(ctx, "k"), "deleting twice is fine")
	_, err = b.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	exerciseBackend(t, b)

	require.NoError(t, b.Set(context.Background(), CollectionsKey, []byte(`[]`)))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, CollectionsKey+".json", entries[0].Name())
}

func TestKeyringBackend(t *testing.T) {
	keyring.MockInit()
	exerciseBackend(t, NewKeyringBackend("screengrab-test"))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestRedisBackend(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:6379",
		DB:          15,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available for testing:", err)
	}
	defer func() {
		client.FlushDB(context.Background())
		client.Close()
	}()

	b := NewRedisBackendWithClient(client)
	exerciseBackend(t, b)

	require.NoError(t, b.Set(ctx, "prefixed", []byte("x")))
	n, err := client.Exists(ctx, RedisKeyPrefix+"prefixed").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := OpenBackend(ctx, "file://"+dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "file:"+dir, b.Name())

	b, err = OpenBackend(ctx, "keyring://", &config.Config{KeyringService: "svc"})
	require.NoError(t, err)
	assert.Equal(t, "keyring:svc", b.Name())

	b, err = OpenBackend(ctx, "keyring://other", nil)
	require.NoError(t, err)
	assert.Equal(t, "keyring:other", b.Name())

	b, err = OpenBackend(ctx, "mem://", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	_, err = OpenBackend(ctx, "s3://bucket", nil)
	assert.Error(t, err)
	_, err = OpenBackend(ctx, "/tmp/x", nil)
	assert.Error(t, err)
}
