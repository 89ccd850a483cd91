package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Service struct {
		BaseURL string        `yaml:"base_url" default:"http://127.0.0.1:8000" validate:"required,url"`
		Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
		Proxy   string        `yaml:"proxy" validate:"omitempty,url"`
	} `yaml:"service"`
	Dashboard struct {
		Symbol                 string        `yaml:"symbol" default:"AAPL" validate:"required"`
		AutoRefresh            bool          `yaml:"auto_refresh" default:"true"`
		RefreshIntervalSeconds int           `yaml:"refresh_interval_seconds" default:"5" validate:"min=1,max=60"`
		Theme                  string        `yaml:"theme" default:"dark" validate:"oneof=dark light"`
		TimeRange              string        `yaml:"time_range" default:"1M" validate:"oneof=1D 1W 1M 3M 1Y"`
		Horizon                int           `yaml:"horizon" default:"1" validate:"min=1"`
		PaperTradeDays         int           `yaml:"paper_trade_days" default:"10" validate:"min=1"`
		StartingEquity         float64       `yaml:"starting_equity" default:"100000" validate:"gt=0"`
		Watchlist              []string      `yaml:"watchlist" default:"[\"AAPL\",\"MSFT\",\"GOOGL\"]"`
		Pulse                  time.Duration `yaml:"pulse" default:"600ms"`
	} `yaml:"dashboard"`
	Server struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr" default:"127.0.0.1:8090" validate:"required,hostname_port"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/quantdash.db"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"data/quantdash.log" validate:"required"`
	} `yaml:"log"`
	PrefsFile string `yaml:"prefs_file" default:"data/prefs.json"`
}

// Load reads config from a YAML file, then applies .env and environment variable
// overrides and finally struct defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("QUANTDASH_BASE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := os.Getenv("QUANTDASH_SYMBOL"); v != "" {
		cfg.Dashboard.Symbol = v
	}
	if v := os.Getenv("QUANTDASH_WATCHLIST"); v != "" {
		cfg.Dashboard.Watchlist = splitList(v)
	}
	if v := os.Getenv("QUANTDASH_REFRESH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dashboard.RefreshIntervalSeconds = n
		}
	}
	if v := os.Getenv("QUANTDASH_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
		cfg.Server.Enabled = true
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Service.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	// A bool default of true cannot tell "unset" from "false", so honor an explicit false.
	if autoRefreshDisabled(data) {
		cfg.Dashboard.AutoRefresh = false
	}
	cfg.Dashboard.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Dashboard.Symbol))
	for i, s := range cfg.Dashboard.Watchlist {
		cfg.Dashboard.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func autoRefreshDisabled(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	var raw struct {
		Dashboard struct {
			AutoRefresh *bool `yaml:"auto_refresh"`
		} `yaml:"dashboard"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return false
	}
	return raw.Dashboard.AutoRefresh != nil && !*raw.Dashboard.AutoRefresh
}
