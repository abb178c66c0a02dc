// Package config loads and validates monitor configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/politeping/politeping/internal/classify"
	"github.com/politeping/politeping/internal/monitor"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig           `mapstructure:"server"`
	Monitor   MonitorConfig          `mapstructure:"monitor"`
	Timeouts  TimeoutConfig          `mapstructure:"timeouts"`
	Budgets   BudgetConfig           `mapstructure:"budgets"`
	Report    ReportConfig           `mapstructure:"report"`
	Logging   LoggingConfig          `mapstructure:"logging"`
	Endpoints []monitor.Endpoint     `mapstructure:"endpoints"`
	Keywords  classify.KeywordConfig `mapstructure:"keywords"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// MonitorConfig governs pass scheduling and identification headers.
type MonitorConfig struct {
	UserAgent           string `mapstructure:"user_agent"`
	PassIntervalSeconds int    `mapstructure:"pass_interval_seconds"`
}

// TimeoutConfig sets the probe and robots timeout tiers, in seconds.
type TimeoutConfig struct {
	ConnectSeconds int `mapstructure:"connect_s"`
	ReadSeconds    int `mapstructure:"read_s"`
	TotalSeconds   int `mapstructure:"total_s"`
	RobotsSeconds  int `mapstructure:"robots_s"`
}

// BudgetConfig bounds request volume per host, per endpoint, and globally.
type BudgetConfig struct {
	HostMinIntervalSeconds     int     `mapstructure:"per_host_min_interval_s"`
	EndpointMinIntervalSeconds int     `mapstructure:"per_endpoint_min_interval_s"`
	GlobalMaxConcurrency       int     `mapstructure:"global_max_concurrency"`
	RequestsPerSecond          float64 `mapstructure:"requests_per_second"`
}

// ReportConfig controls the CSV result sink. An empty path disables it.
type ReportConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POLITEPING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("monitor.user_agent", "politeping/1.0 (+https://github.com/politeping/politeping)")
	v.SetDefault("monitor.pass_interval_seconds", 300)
	v.SetDefault("timeouts.connect_s", 5)
	v.SetDefault("timeouts.read_s", 8)
	v.SetDefault("timeouts.total_s", 12)
	v.SetDefault("timeouts.robots_s", 3)
	v.SetDefault("budgets.per_host_min_interval_s", 60)
	v.SetDefault("budgets.per_endpoint_min_interval_s", 600)
	v.SetDefault("budgets.global_max_concurrency", 3)
	v.SetDefault("budgets.requests_per_second", 1.0)
	v.SetDefault("keywords.settings.min_text_length", classify.DefaultMinTextLength)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits. Invalid static
// configuration is the only fatal error in the process.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Budgets.GlobalMaxConcurrency <= 0 {
		return fmt.Errorf("budgets.global_max_concurrency must be > 0")
	}
	if c.Timeouts.ConnectSeconds <= 0 || c.Timeouts.TotalSeconds <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required")
	}
	seen := make(map[string]struct{}, len(c.Endpoints))
	for i, ep := range c.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("endpoints[%d].name is required", i)
		}
		u, err := url.Parse(ep.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("endpoints[%d].url %q is not an absolute URL", i, ep.URL)
		}
		if _, dup := seen[ep.URL]; dup {
			return fmt.Errorf("endpoints[%d].url %q is duplicated", i, ep.URL)
		}
		seen[ep.URL] = struct{}{}
	}
	if _, err := classify.Compile(c.Keywords); err != nil {
		return fmt.Errorf("keywords: %w", err)
	}
	return nil
}

// HostMinInterval returns the per-host budget as a duration.
func (c Config) HostMinInterval() time.Duration {
	return time.Duration(c.Budgets.HostMinIntervalSeconds) * time.Second
}

// EndpointMinInterval returns the per-endpoint budget as a duration.
func (c Config) EndpointMinInterval() time.Duration {
	return time.Duration(c.Budgets.EndpointMinIntervalSeconds) * time.Second
}

// PassInterval returns the scheduler cadence as a duration.
func (c Config) PassInterval() time.Duration {
	return time.Duration(c.Monitor.PassIntervalSeconds) * time.Second
}
