// Package config loads engine configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the detection engine service.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Notary    NotaryConfig
	Signal    SignalConfig
	Detection DetectionConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowed_origins"`
	AuthToken       string `mapstructure:"auth_token"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
	RateLimitBurst  int    `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds the optional PostgreSQL detection store settings.
// An empty URL disables persistence entirely.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// NotaryConfig holds the blacklist notarization sink settings. An empty URL
// disables notarization; blacklisting still happens, just without a
// reference.
type NotaryConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SignalConfig controls the optional statistical signal provider.
type SignalConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	Seed    int64 `mapstructure:"seed"` // 0 = time-derived
}

// DetectionConfig carries the named pipeline thresholds.
type DetectionConfig struct {
	ReportingThreshold   float64 `mapstructure:"reporting_threshold"`
	SmurfMinCount        int     `mapstructure:"smurf_min_count"`
	SmurfSumRatio        float64 `mapstructure:"smurf_sum_ratio"`
	StructuringBandRatio float64 `mapstructure:"structuring_band_ratio"`
	StructuringMinRepeat int     `mapstructure:"structuring_min_repeat"`
	MinCycleLength       int     `mapstructure:"min_cycle_length"`
	MaxCycleLength       int     `mapstructure:"max_cycle_length"`
	MaxCycles            int     `mapstructure:"max_cycles"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from config.yaml (optional) and FRAUDNETS_*
// environment variables, applying defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("FRAUDNETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults + env are a complete setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("server.rate_limit_per_min", 120)
	v.SetDefault("server.rate_limit_burst", 30)

	v.SetDefault("database.url", "")

	v.SetDefault("notary.url", "")
	v.SetDefault("notary.timeout", 2*time.Second)

	v.SetDefault("signal.enabled", false)
	v.SetDefault("signal.seed", int64(0))

	v.SetDefault("detection.reporting_threshold", 10000.0)
	v.SetDefault("detection.smurf_min_count", 3)
	v.SetDefault("detection.smurf_sum_ratio", 0.7)
	v.SetDefault("detection.structuring_band_ratio", 0.85)
	v.SetDefault("detection.structuring_min_repeat", 2)
	v.SetDefault("detection.min_cycle_length", 3)
	v.SetDefault("detection.max_cycle_length", 12)
	v.SetDefault("detection.max_cycles", 10000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}
