package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the aggregator.
type Config struct {
	UserID    string          `mapstructure:"user_id"`
	Timezone  string          `mapstructure:"timezone"`
	LookbackD int             `mapstructure:"lookback_days"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts"`
}

// TimeoutConfig holds the per-class deadlines for storage operations,
// in seconds.
type TimeoutConfig struct {
	QuerySeconds int `mapstructure:"query_seconds"`
	WriteSeconds int `mapstructure:"write_seconds"`
	BulkSeconds  int `mapstructure:"bulk_seconds"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds a pgx connection string.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

// DedupConfig holds the volatile-key set overrides. The built-in set
// is versioned; deployments can only extend it, never shrink it.
type DedupConfig struct {
	KeySetVersion     string   `mapstructure:"keyset_version"`
	ExtraVolatileKeys []string `mapstructure:"extra_volatile_keys"`
}

// ProvidersConfig holds per-provider credentials and settings.
type ProvidersConfig struct {
	Oura      OuraConfig      `mapstructure:"oura"`
	Withings  WithingsConfig  `mapstructure:"withings"`
	GoogleFit GoogleFitConfig `mapstructure:"google_fit"`
	SwitchBot SwitchBotConfig `mapstructure:"switchbot"`
	Weather   WeatherConfig   `mapstructure:"weather"`
}

// OuraConfig holds Oura API settings.
type OuraConfig struct {
	PersonalToken string `mapstructure:"personal_token"`
}

// WithingsConfig holds Withings API settings. Tokens live in the
// oauth_tokens table; only the client identity is configured here.
type WithingsConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// GoogleFitConfig holds Google Fit API settings.
type GoogleFitConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// SwitchBotConfig holds SwitchBot API v1.1 settings.
type SwitchBotConfig struct {
	Token    string `mapstructure:"token"`
	Secret   string `mapstructure:"secret"`
	DeviceID string `mapstructure:"device_id"`
}

// WeatherConfig holds OpenWeatherMap settings.
type WeatherConfig struct {
	APIKey     string  `mapstructure:"api_key"`
	DefaultLat float64 `mapstructure:"default_lat"`
	DefaultLon float64 `mapstructure:"default_lon"`
}

// Location resolves the canonical timezone for stored timestamps.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("user_id", "user_001")
	v.SetDefault("timezone", "Asia/Tokyo")
	v.SetDefault("lookback_days", 7)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "yuruhealth")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "yuruhealth")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("database.timeouts.query_seconds", 5)
	v.SetDefault("database.timeouts.write_seconds", 10)
	v.SetDefault("database.timeouts.bulk_seconds", 30)

	v.SetDefault("dedup.keyset_version", "")
	v.SetDefault("dedup.extra_volatile_keys", []string{})

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override file config
	v.SetEnvPrefix("YURUHEALTH")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := Load("")
	return cfg
}
