package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/chartscan/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete screener configuration
type Config struct {
	Analysis  Params          `json:"analysis" yaml:"analysis"`
	Scan      ScanConfig      `json:"scan" yaml:"scan"`
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

// ScanConfig selects what to scan and how wide to fan out.
type ScanConfig struct {
	Symbols      []string `json:"symbols" yaml:"symbols"`
	Interval     string   `json:"interval" yaml:"interval"`
	LookbackDays int      `json:"lookback_days" yaml:"lookback_days"`
	Workers      int      `json:"workers" yaml:"workers"`
	Timeout      string   `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "5m"
	RequireExit  bool     `json:"require_exit" yaml:"require_exit"`
}

// ParseTimeout converts the timeout string to a time.Duration. Empty means no timeout.
func (s ScanConfig) ParseTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// ProvidersConfig lists candle sources in the order they are tried.
type ProvidersConfig struct {
	Order     []string        `json:"order" yaml:"order"` // csv, oanda, dukascopy
	CSV       CSVConfig       `json:"csv" yaml:"csv"`
	OANDA     OANDAConfig     `json:"oanda" yaml:"oanda"`
	Dukascopy DukascopyConfig `json:"dukascopy" yaml:"dukascopy"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}

// CSVConfig points at a directory of <SYMBOL>.csv candle files.
type CSVConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// OANDAConfig contains the REST endpoint. The token normally comes from the
// environment (see LoadEnv) rather than the file.
type OANDAConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	Price   string `json:"price,omitempty" yaml:"price,omitempty"` // M, B or A
}

// DukascopyConfig contains the datafeed base URL.
type DukascopyConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// CacheConfig enables the redis read-through candle cache.
type CacheConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
	TTL      string `json:"ttl" yaml:"ttl"`
}

// ParseTTL converts the ttl string to a time.Duration.
func (c CacheConfig) ParseTTL() (time.Duration, error) {
	if c.TTL == "" {
		return time.Hour, nil
	}
	return time.ParseDuration(c.TTL)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type      string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesCSV string `json:"trades_csv,omitempty" yaml:"trades_csv,omitempty"`
	StatsCSV  string `json:"stats_csv,omitempty" yaml:"stats_csv,omitempty"`
	DBPath    string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML). Fields missing
// from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if _, err := market.ParseInterval(c.Scan.Interval); err != nil {
		return fmt.Errorf("scan.interval: %w", err)
	}
	if c.Scan.LookbackDays <= 0 {
		return fmt.Errorf("scan.lookback_days must be positive")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if _, err := c.Scan.ParseTimeout(); err != nil {
		return fmt.Errorf("scan.timeout: %w", err)
	}

	if len(c.Providers.Order) == 0 {
		return fmt.Errorf("providers.order must name at least one provider")
	}
	for _, name := range c.Providers.Order {
		switch name {
		case "csv":
			if c.Providers.CSV.Dir == "" {
				return fmt.Errorf("providers.csv.dir required for csv provider")
			}
		case "oanda":
			if c.Providers.OANDA.BaseURL == "" {
				return fmt.Errorf("providers.oanda.base_url required for oanda provider")
			}
		case "dukascopy":
			if c.Providers.Dukascopy.BaseURL == "" {
				return fmt.Errorf("providers.dukascopy.base_url required for dukascopy provider")
			}
		default:
			return fmt.Errorf("unknown provider %q (supported: csv, oanda, dukascopy)", name)
		}
	}
	if c.Providers.Cache.Enabled {
		if c.Providers.Cache.Addr == "" {
			return fmt.Errorf("providers.cache.addr required when cache is enabled")
		}
		if _, err := c.Providers.Cache.ParseTTL(); err != nil {
			return fmt.Errorf("providers.cache.ttl: %w", err)
		}
	}

	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.TradesCSV == "" || c.Journal.StatsCSV == "" {
			return fmt.Errorf("journal trades_csv and stats_csv required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Analysis: DefaultParams(),
		Scan: ScanConfig{
			Interval:     "15m",
			LookbackDays: 60,
			Workers:      10,
			Timeout:      "10m",
		},
		Providers: ProvidersConfig{
			Order: []string{"csv"},
			CSV:   CSVConfig{Dir: "./data"},
			OANDA: OANDAConfig{
				BaseURL: "https://api-fxpractice.oanda.com",
				Price:   "M",
			},
			Dukascopy: DukascopyConfig{
				BaseURL: "https://datafeed.dukascopy.com/datafeed",
			},
			Cache: CacheConfig{
				Addr: "localhost:6379",
				TTL:  "1h",
			},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./chartscan.sqlite",
		},
	}
}
