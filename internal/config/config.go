package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP/Browser
	HTTPTimeout     time.Duration
	ScanTimeout     time.Duration
	UserAgent       string
	Proxy           string
	BrowserPoolSize int
	BrowserHeadless bool
	ChromePath      string
	Mode            string

	// Store
	StoreURL       string
	QuotaBytes     int64
	WarnRatio      float64
	KeyringService string

	// Downloads
	DownloadConcurrency int
	DownloadRPS         float64
	DownloadBurst       int

	// Agent server
	ListenAddr     string
	AllowedOrigins []string

	Scan       ScanConfig `yaml:"scan"`
	Heuristics Heuristics `yaml:"heuristics"`
}

// ScanConfig tunes the scroll-and-collect loop
type ScanConfig struct {
	SettleDelay       time.Duration `yaml:"settle_delay"`
	BottomThreshold   float64       `yaml:"bottom_threshold"`
	StagnationLimit   int           `yaml:"stagnation_limit"`
	HarvestAttempts   int           `yaml:"harvest_attempts"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
}

// Heuristics holds every selector and threshold used to read the target page
type Heuristics struct {
	ScreenSelectors        []string `yaml:"screen_selectors" json:"screenSelectors"`
	ListItemSelector       string   `yaml:"list_item_selector" json:"listItemSelector"`
	HeadingSelector        string   `yaml:"heading_selector" json:"headingSelector"`
	ExcludedRegions        string   `yaml:"excluded_regions" json:"excludedRegions"`
	LogoComponentSelectors []string `yaml:"logo_component_selectors" json:"logoComponentSelectors"`
	LogoContainerSelector  string   `yaml:"logo_container_selector" json:"logoContainerSelector"`
	HeadingLogoSelector    string   `yaml:"heading_logo_selector" json:"headingLogoSelector"`
	MinHeadingLogoSize     float64  `yaml:"min_heading_logo_size" json:"minHeadingLogoSize"`
	NameSeparator          string   `yaml:"name_separator" json:"nameSeparator"`
	PlaceholderLogoURL     string   `yaml:"placeholder_logo_url" json:"placeholderLogoUrl"`
}

// fileConfig is the shape of the optional YAML configuration file
type fileConfig struct {
	StoreURL   string     `yaml:"store"`
	QuotaBytes int64      `yaml:"quota_bytes"`
	UserAgent  string     `yaml:"user_agent"`
	Scan       ScanConfig `yaml:"scan"`
	Heuristics Heuristics `yaml:"heuristics"`
}

// Default returns a Config populated with defaults only
func Default() *Config {
	return &Config{
		LogLevel:            DefaultLogLevel,
		JSONLog:             DefaultJSONLog,
		HTTPTimeout:         DefaultHTTPTimeout,
		ScanTimeout:         DefaultScanTimeout,
		UserAgent:           DefaultUserAgent,
		BrowserPoolSize:     DefaultBrowserPoolSize,
		BrowserHeadless:     DefaultBrowserHeadless,
		Mode:                DefaultMode,
		StoreURL:            DefaultStoreURL,
		QuotaBytes:          DefaultQuotaBytes,
		WarnRatio:           DefaultWarnRatio,
		KeyringService:      DefaultKeyringService,
		DownloadConcurrency: DefaultDownloadConcurrency,
		DownloadRPS:         DefaultDownloadRPS,
		DownloadBurst:       DefaultDownloadBurst,
		ListenAddr:          DefaultListenAddr,
		AllowedOrigins:      []string{"*"},
		Scan: ScanConfig{
			SettleDelay:       DefaultSettleDelay,
			BottomThreshold:   DefaultBottomThreshold,
			StagnationLimit:   DefaultStagnationLimit,
			HarvestAttempts:   DefaultHarvestAttempts,
			BackoffMultiplier: DefaultBackoffMultiplier,
			MaxBackoff:        DefaultMaxBackoff,
		},
		Heuristics: DefaultHeuristics(),
	}
}

// Load builds a Config by combining defaults, an optional .env file, environment variables,
// an optional YAML config file, and CLI flags.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	applyEnv(cfg)

	configPath := os.Getenv("SCREENGRAB_CONFIG")
	if s := flagValue(cmd, "config"); s != "" {
		configPath = s
	}
	if configPath != "" {
		if err := LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	// Read CLI flags if provided
	if cmd != nil {
		applyFlags(cfg, cmd)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFile merges a YAML config file into cfg. Zero values in the file keep the current setting.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.StoreURL != "" {
		cfg.StoreURL = fc.StoreURL
	}
	if fc.QuotaBytes > 0 {
		cfg.QuotaBytes = fc.QuotaBytes
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	mergeScan(&cfg.Scan, fc.Scan)
	mergeHeuristics(&cfg.Heuristics, fc.Heuristics)
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SCREENGRAB_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("SCREENGRAB_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SCREENGRAB_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("SCREENGRAB_STORE"); v != "" {
		cfg.StoreURL = v
	}
	if v := os.Getenv("SCREENGRAB_QUOTA_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.QuotaBytes = n
		}
	}
	if v := os.Getenv("SCREENGRAB_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SCREENGRAB_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SCREENGRAB_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scan.SettleDelay = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flagValue reads a flag from the command's merged or persistent flag set
func flagValue(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	if f := cmd.PersistentFlags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func applyFlags(cfg *Config, cmd *cobra.Command) {
	str := func(name string) string {
		return flagValue(cmd, name)
	}

	if s := str("user-agent"); s != "" {
		cfg.UserAgent = s
	}
	if s := str("proxy"); s != "" {
		cfg.Proxy = s
	}
	if s := str("store"); s != "" {
		cfg.StoreURL = s
	}
	if s := str("timeout"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if s := str("scan-timeout"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.ScanTimeout = d
		}
	}
	if s := str("settle"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.Scan.SettleDelay = d
		}
	}
	if str("json") == "true" {
		cfg.JSONLog = true
	}
	if str("headful") == "true" {
		cfg.BrowserHeadless = false
	}
	if str("verbose") == "true" {
		cfg.LogLevel = "debug"
	} else if str("quiet") == "true" {
		cfg.LogLevel = "error"
	}
}

func mergeScan(dst *ScanConfig, src ScanConfig) {
	if src.SettleDelay > 0 {
		dst.SettleDelay = src.SettleDelay
	}
	if src.BottomThreshold > 0 {
		dst.BottomThreshold = src.BottomThreshold
	}
	if src.StagnationLimit > 0 {
		dst.StagnationLimit = src.StagnationLimit
	}
	if src.HarvestAttempts > 0 {
		dst.HarvestAttempts = src.HarvestAttempts
	}
	if src.BackoffMultiplier > 0 {
		dst.BackoffMultiplier = src.BackoffMultiplier
	}
	if src.MaxBackoff > 0 {
		dst.MaxBackoff = src.MaxBackoff
	}
}

func mergeHeuristics(dst *Heuristics, src Heuristics) {
	if len(src.ScreenSelectors) > 0 {
		dst.ScreenSelectors = src.ScreenSelectors
	}
	if src.ListItemSelector != "" {
		dst.ListItemSelector = src.ListItemSelector
	}
	if src.HeadingSelector != "" {
		dst.HeadingSelector = src.HeadingSelector
	}
	if src.ExcludedRegions != "" {
		dst.ExcludedRegions = src.ExcludedRegions
	}
	if len(src.LogoComponentSelectors) > 0 {
		dst.LogoComponentSelectors = src.LogoComponentSelectors
	}
	if src.LogoContainerSelector != "" {
		dst.LogoContainerSelector = src.LogoContainerSelector
	}
	if src.HeadingLogoSelector != "" {
		dst.HeadingLogoSelector = src.HeadingLogoSelector
	}
	if src.MinHeadingLogoSize > 0 {
		dst.MinHeadingLogoSize = src.MinHeadingLogoSize
	}
	if src.NameSeparator != "" {
		dst.NameSeparator = src.NameSeparator
	}
	if src.PlaceholderLogoURL != "" {
		dst.PlaceholderLogoURL = src.PlaceholderLogoURL
	}
}

// ScreenSelector joins the screen selectors into a single CSS selector list
func (h Heuristics) ScreenSelector() string {
	return strings.Join(h.ScreenSelectors, ", ")
}

// LogoComponentSelector joins the component logo selectors into a single CSS selector list
func (h Heuristics) LogoComponentSelector() string {
	return strings.Join(h.LogoComponentSelectors, ", ")
}
