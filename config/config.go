package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration.
type Config struct {
	Trading   TradingConfig   `yaml:"trading"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

// TradingConfig controls the cycle cadence and the risk caps.
type TradingConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	ScanPageSize    int `yaml:"scan_page_size"`
	MaxPositionPct  int `yaml:"max_position_pct"`
	CashReservePct  int `yaml:"cash_reserve_pct"`
	MaxDailyLossPct int `yaml:"max_daily_loss_pct"`
}

// APIConfig holds the venue endpoint and credentials. The key ID and the
// private key path come from the environment, never from YAML.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	ReadsPerSec    int    `yaml:"reads_per_sec"`
	WritesPerSec   int    `yaml:"writes_per_sec"`
	KeyID          string `yaml:"-"`
	PrivateKeyPath string `yaml:"-"`
}

// StorageConfig controls where data is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// DashboardConfig controls the HTTP monitoring server.
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Environment
// variables override YAML for the keys they cover.
func Load(path string) (*Config, error) {
	// Load .env if present (missing file is fine).
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval returns the cycle interval as a time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// applyEnvOverrides overrides values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KALSHI_API_KEY"); v != "" {
		cfg.API.KeyID = v
	}
	if v := os.Getenv("KALSHI_PRIVATE_KEY_PATH"); v != "" {
		cfg.API.PrivateKeyPath = v
	}
	if v := os.Getenv("KALSHI_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills required values with sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 300
	}
	if cfg.Trading.ScanPageSize <= 0 {
		cfg.Trading.ScanPageSize = 1000
	}
	if cfg.Trading.MaxPositionPct <= 0 {
		cfg.Trading.MaxPositionPct = 20
	}
	if cfg.Trading.CashReservePct <= 0 {
		cfg.Trading.CashReservePct = 20
	}
	if cfg.Trading.MaxDailyLossPct <= 0 {
		cfg.Trading.MaxDailyLossPct = 15
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://demo-api.kalshi.co/trade-api/v2"
	}
	if cfg.API.ReadsPerSec <= 0 {
		cfg.API.ReadsPerSec = 8
	}
	if cfg.API.WritesPerSec <= 0 {
		cfg.API.WritesPerSec = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "calci.db"
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = "127.0.0.1:8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
