package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.ScanTimeout <= 0 {
		return fmt.Errorf("scan timeout must be > 0")
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.QuotaBytes <= 0 {
		return fmt.Errorf("store quota must be > 0")
	}
	if c.WarnRatio <= 0 || c.WarnRatio > 1 {
		return fmt.Errorf("storage warn ratio must be in (0, 1]")
	}
	if c.Mode != "spa" && c.Mode != "static" && c.Mode != "auto" {
		return fmt.Errorf("invalid mode: %s (must be static, spa or auto)", c.Mode)
	}
	if !strings.Contains(c.StoreURL, "://") {
		return fmt.Errorf("store must be a URL such as file://, keyring:// or redis://host:6379")
	}
	if c.Scan.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be >= 0")
	}
	if c.Scan.StagnationLimit < 1 {
		return fmt.Errorf("stagnation limit must be >= 1")
	}
	if c.Scan.HarvestAttempts < 1 {
		return fmt.Errorf("harvest attempts must be >= 1")
	}
	if len(c.Heuristics.ScreenSelectors) == 0 {
		return fmt.Errorf("at least one screen selector is required")
	}
	return nil
}
