package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// MasterPolicy names how the surviving record of a clear duplicate group is chosen
type MasterPolicy string

const (
	MasterFirst    MasterPolicy = "first"
	MasterEarliest MasterPolicy = "earliest"
	MasterBestRank MasterPolicy = "best_rank"
)

// Config holds all configuration for the application
type Config struct {
	// Application settings
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	// External chart backend
	BackendURL   string  `envconfig:"BACKEND_URL" required:"true"`
	BackendRPS   float64 `envconfig:"BACKEND_RPS" default:"20"`
	BackendBurst int     `envconfig:"BACKEND_BURST" default:"10"`

	// Per-endpoint timeouts; a timeout is treated like any other fetch failure
	AutocompleteTimeout time.Duration `envconfig:"AUTOCOMPLETE_TIMEOUT" default:"5s"`
	SearchTimeout       time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	TrendingTimeout     time.Duration `envconfig:"TRENDING_TIMEOUT" default:"30s"`
	AdminTimeout        time.Duration `envconfig:"ADMIN_TIMEOUT" default:"30s"`

	// Shared secret used to sign service tokens for admin endpoints.
	// Admin calls are sent unauthenticated when empty.
	AdminSigningKey string `envconfig:"ADMIN_SIGNING_KEY"`

	// Optional infrastructure
	ValkeyURL       string `envconfig:"VALKEY_URL"`
	MongodbURL      string `envconfig:"MONGODB_URL"`
	MongodbDatabase string `envconfig:"MONGODB_DATABASE" default:"kpopranker"`

	// Suggestions
	SuggestDebounce time.Duration `envconfig:"SUGGEST_DEBOUNCE" default:"300ms"`
	SuggestLimit    int           `envconfig:"SUGGEST_LIMIT" default:"10"`
	AliasesPath     string        `envconfig:"ALIASES_PATH"`
	AliasesPoll     time.Duration `envconfig:"ALIASES_POLL_INTERVAL" default:"30s"`

	// Trending feed
	SnapshotPath            string        `envconfig:"SNAPSHOT_PATH" default:"public/hybrid_data.json"`
	TrendingLimit           int           `envconfig:"TRENDING_LIMIT" default:"50"`
	TrendingRefreshDelay    time.Duration `envconfig:"TRENDING_REFRESH_DELAY" default:"500ms"`
	TrendingRefreshInterval time.Duration `envconfig:"TRENDING_REFRESH_INTERVAL" default:"0"`

	// Dedup review
	DedupMasterPolicy MasterPolicy `envconfig:"DEDUP_MASTER_POLICY" default:"first"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("BACKEND_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL must be http or https, got %q", c.BackendURL)
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")

	switch c.DedupMasterPolicy {
	case MasterFirst, MasterEarliest, MasterBestRank:
	default:
		return fmt.Errorf("unsupported DEDUP_MASTER_POLICY: %s", c.DedupMasterPolicy)
	}

	if c.SuggestLimit <= 0 {
		return fmt.Errorf("SUGGEST_LIMIT must be positive")
	}
	if c.SuggestDebounce < 0 || c.TrendingRefreshDelay < 0 || c.TrendingRefreshInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.BackendRPS <= 0 {
		return fmt.Errorf("BACKEND_RPS must be positive")
	}
	if c.BackendBurst <= 0 {
		c.BackendBurst = 1
	}

	return nil
}

// CacheEnabled reports whether a shared Valkey cache is configured
func (c *Config) CacheEnabled() bool {
	return c.ValkeyURL != ""
}

// AuditEnabled reports whether the Mongo decision log is configured
func (c *Config) AuditEnabled() bool {
	return c.MongodbURL != ""
}
