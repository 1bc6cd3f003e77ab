package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel           = "info"
	DefaultJSONLog            = false
	DefaultUserAgent          = "Screengrab/1.0 (https://github.com/law-makers/screengrab)"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultScanTimeout        = 10 * time.Minute
	DefaultBrowserPoolSize    = 1
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultPoolAcquireTTL     = 10 * time.Second
	DefaultMode               = "spa"

	// Scroll loop
	DefaultSettleDelay       = 500 * time.Millisecond
	DefaultBottomThreshold   = 100.0
	DefaultStagnationLimit   = 2
	DefaultHarvestAttempts   = 4 // first read plus three retries
	DefaultBackoffMultiplier = 2.0
	DefaultMaxBackoff        = 10 * time.Second

	// Store
	DefaultStoreURL       = "file://"
	DefaultStoreDir       = ".screengrab"
	DefaultQuotaBytes     = 5 * 1024 * 1024 // 5MB
	DefaultWarnRatio      = 0.8
	DefaultKeyringService = "screengrab"

	// Downloads
	DefaultDownloadConcurrency = 5
	DefaultDownloadRPS         = 5.0
	DefaultDownloadBurst       = 10

	// Agent server
	DefaultListenAddr = "127.0.0.1:7411"
)

// DefaultHeuristics returns the selector set for the design-reference site.
// Page markup changes often; override these from a YAML file instead of editing code.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ScreenSelectors: []string{
			`[data-testid="screen-cell"] img`,
			`[class*="ScreenCell"] img`,
			`a[href*="/screens/"] img`,
		},
		ListItemSelector: "li",
		HeadingSelector:  "h1",
		ExcludedRegions:  `nav, header, [role="banner"]`,
		LogoComponentSelectors: []string{
			`[data-testid="app-logo"] img`,
			`img[class*="AppLogo"]`,
		},
		LogoContainerSelector: `[class*="logo"] img`,
		HeadingLogoSelector:   "h1 ~ img, h1 img",
		MinHeadingLogoSize:    60,
		NameSeparator:         "—",
		PlaceholderLogoURL:    "https://placehold.co/128x128/png?text=%s",
	}
}
