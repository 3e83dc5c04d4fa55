package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Directus   DirectusConfig   `mapstructure:"directus"`
	SuperFrete SuperFreteConfig `mapstructure:"superfrete"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Redirects  RedirectsConfig  `mapstructure:"redirects"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DirectusConfig holds CMS client configuration.
type DirectusConfig struct {
	// URL is the Directus base URL the catalog is synced from.
	URL string `mapstructure:"url"`

	// Token is a static access token. May be empty when the collections
	// are publicly readable.
	Token string `mapstructure:"token"`

	// ShopID is the lojas record this storefront serves.
	ShopID string `mapstructure:"shop_id"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// SuperFreteConfig holds carrier quote configuration.
type SuperFreteConfig struct {
	// CalculatorURL is the full quote calculator endpoint.
	CalculatorURL string `mapstructure:"calculator_url"`

	// Token authenticates against SuperFrete. When empty the quote
	// endpoint serves no carrier options instead of failing pages.
	Token string `mapstructure:"token"`

	// Services is the comma-separated list of carrier service IDs to quote.
	Services string `mapstructure:"services"`

	// OriginCEP overrides the warehouse postal code parcels ship from.
	OriginCEP string `mapstructure:"origin_cep"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds catalog cache refresh configuration.
type CatalogConfig struct {
	// RefreshInterval is how often the cached catalog is re-synced.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	// SyncTimeout bounds a single sync cycle against the CMS.
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`
}

// RedirectsConfig holds the outbound redirect targets.
type RedirectsConfig struct {
	// TechnologyURL is where /tecnologia sends visitors.
	TechnologyURL string `mapstructure:"technology_url"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/vitrine.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Directus defaults
	v.SetDefault("directus.url", "https://api2.leanttro.com")
	v.SetDefault("directus.token", "")
	v.SetDefault("directus.shop_id", "")
	v.SetDefault("directus.timeout", "8s")

	// SuperFrete defaults
	v.SetDefault("superfrete.calculator_url", "https://api.superfrete.com/api/v0/calculator")
	v.SetDefault("superfrete.token", "")
	v.SetDefault("superfrete.services", "")
	v.SetDefault("superfrete.origin_cep", "")
	v.SetDefault("superfrete.timeout", "10s")

	// Catalog cache defaults
	v.SetDefault("catalog.refresh_interval", "5m")
	v.SetDefault("catalog.sync_timeout", "30s")

	// Redirect defaults
	v.SetDefault("redirects.technology_url", "https://leanttro.com/tecnologia/")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("VITRINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
