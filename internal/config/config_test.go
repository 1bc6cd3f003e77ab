package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSettleDelay, cfg.Scan.SettleDelay)
	assert.Equal(t, DefaultStagnationLimit, cfg.Scan.StagnationLimit)
	assert.Equal(t, int64(DefaultQuotaBytes), cfg.QuotaBytes)
	assert.NotEmpty(t, cfg.Heuristics.ScreenSelectors)
}

func TestLoad_FileOverridesHeuristics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screengrab.yaml")
	content := `
store: file:///tmp/screens
quota_bytes: 1024
scan:
  settle_delay: 50ms
  stagnation_limit: 3
heuristics:
  screen_selectors:
    - ".gallery img"
  min_heading_logo_size: 80
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("config", path))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, "file:///tmp/screens", cfg.StoreURL)
	assert.Equal(t, int64(1024), cfg.QuotaBytes)
	assert.Equal(t, 50*time.Millisecond, cfg.Scan.SettleDelay)
	assert.Equal(t, 3, cfg.Scan.StagnationLimit)
	assert.Equal(t, []string{".gallery img"}, cfg.Heuristics.ScreenSelectors)
	assert.Equal(t, 80.0, cfg.Heuristics.MinHeadingLogoSize)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultHeuristics().HeadingSelector, cfg.Heuristics.HeadingSelector)
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("SCREENGRAB_STORE", "keyring://")

	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("store", "redis://localhost:6379/0"))
	require.NoError(t, cmd.PersistentFlags().Set("verbose", "true"))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.StoreURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))

	cfg.StoreURL = "not-a-url"
	assert.Error(t, validate(cfg))

	cfg = Default()
	cfg.Scan.StagnationLimit = 0
	assert.Error(t, validate(cfg))

	cfg = Default()
	cfg.Mode = "auto"
	assert.Error(t, validate(cfg))
}
