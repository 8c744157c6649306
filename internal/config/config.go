package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Client  ClientConfig  `mapstructure:"client"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	NepseBaseURL  string `mapstructure:"nepse_base_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	RateBurst     int    `mapstructure:"rate_burst"`
	StreamEnabled bool   `mapstructure:"stream_enabled"`
}

type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	GoogleAudience string `mapstructure:"google_audience"`
	TokenInfoURL   string `mapstructure:"tokeninfo_url"`
	SessionTTLDays int    `mapstructure:"session_ttl_days"`
}

// ClientConfig configures the dashboard side: where the backend lives,
// where company icons live, how often to poll, and where local state is kept.
type ClientConfig struct {
	APIBaseURL        string `mapstructure:"api_base_url"`
	ImageBaseURL      string `mapstructure:"image_base_url"`
	StatusIntervalSec int    `mapstructure:"status_interval_sec"`
	MarketIntervalSec int    `mapstructure:"market_interval_sec"`
	StateDir          string `mapstructure:"state_dir"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func (c *ClientConfig) StatusInterval() time.Duration {
	return time.Duration(c.StatusIntervalSec) * time.Second
}

func (c *ClientConfig) MarketInterval() time.Duration {
	return time.Duration(c.MarketIntervalSec) * time.Second
}

func (c *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLDays) * 24 * time.Hour
}

func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.nepse_base_url", "https://www.nepalstock.com")
	v.SetDefault("server.timeout_sec", 30)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.stream_enabled", true)
	v.SetDefault("auth.tokeninfo_url", "https://oauth2.googleapis.com/tokeninfo")
	v.SetDefault("auth.session_ttl_days", 7)
	v.SetDefault("client.api_base_url", "http://localhost:4000")
	v.SetDefault("client.status_interval_sec", 10)
	v.SetDefault("client.market_interval_sec", 10)
	v.SetDefault("client.state_dir", ".bulknepal")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("BULKNEPAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("auth.jwt_secret", "BULKNEPAL_JWT_SECRET")
	_ = v.BindEnv("auth.google_audience", "BULKNEPAL_GOOGLE_AUDIENCE")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.NepseBaseURL == "" {
		return fmt.Errorf("server.nepse_base_url is required")
	}
	if c.Server.RatePerSecond < 1 {
		return fmt.Errorf("server.rate_per_second must be >= 1")
	}
	if c.Client.StatusIntervalSec < 1 || c.Client.MarketIntervalSec < 1 {
		return fmt.Errorf("poll intervals must be >= 1 second")
	}
	if c.Auth.SessionTTLDays < 1 {
		return fmt.Errorf("auth.session_ttl_days must be >= 1")
	}
	return nil
}
