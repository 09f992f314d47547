package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	JWT     JWTConfig     `yaml:"jwt"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host string `yaml:"host" env:"STACKS_SERVER_HOST"`
	Port int    `yaml:"port" env:"STACKS_SERVER_PORT"`
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer" env:"STACKS_JWT_ISSUER"`
	PublicKeyURL        string `yaml:"public_key_url" env:"STACKS_JWT_PUBLIC_KEY_URL"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours" env:"STACKS_JWT_PUBLIC_KEY_REFRESH_HOURS"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address" env:"STACKS_REDIS_ADDRESS"`
	Password        string `yaml:"password" env:"STACKS_REDIS_PASSWORD"`
	DB              int    `yaml:"db" env:"STACKS_REDIS_DB"`
	BlacklistPrefix string `yaml:"blacklist_prefix" env:"STACKS_REDIS_BLACKLIST_PREFIX"`
	EventsPrefix    string `yaml:"events_prefix" env:"STACKS_REDIS_EVENTS_PREFIX"`
}

// SessionConfig holds session and inventory settings
type SessionConfig struct {
	MaxPlayers    int           `yaml:"max_players" env:"STACKS_SESSION_MAX_PLAYERS"`
	InventoryName string        `yaml:"inventory_name" env:"STACKS_SESSION_INVENTORY_NAME"`
	MaxAmount     int           `yaml:"max_amount" env:"STACKS_SESSION_MAX_AMOUNT"` // per-request item amount limit
	StarterItems  []StarterItem `yaml:"starter_items"`
}

// StarterItem is granted to every player's inventory on join
type StarterItem struct {
	Item   string `yaml:"item"`
	Amount int    `yaml:"amount"`
}

// CatalogConfig points at the item definitions file
type CatalogConfig struct {
	Path string `yaml:"path" env:"STACKS_CATALOG_PATH"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" env:"STACKS_LOG_LEVEL"`
	Format string `yaml:"format" env:"STACKS_LOG_FORMAT"` // "text" or "json"
}

// Load reads configuration from a YAML file, then applies STACKS_*
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies environment overrides and
// defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Set defaults if not provided
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Redis.EventsPrefix == "" {
		cfg.Redis.EventsPrefix = "inventory:changed:"
	}
	if cfg.Session.MaxPlayers == 0 {
		cfg.Session.MaxPlayers = 100
	}
	if cfg.Session.MaxAmount == 0 {
		cfg.Session.MaxAmount = 10000
	}
	if cfg.Session.InventoryName == "" {
		cfg.Session.InventoryName = "Inventory"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "./configs/items.yaml"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Session.MaxPlayers < 0 {
		return errors.New("session max_players must not be negative")
	}
	if c.Session.MaxAmount < 0 {
		return errors.New("session max_amount must not be negative")
	}
	for i, it := range c.Session.StarterItems {
		if it.Item == "" {
			return fmt.Errorf("starter item %d: missing item id", i)
		}
		if it.Amount <= 0 {
			return fmt.Errorf("starter item %d (%s): amount must be positive", i, it.Item)
		}
	}
	return nil
}
