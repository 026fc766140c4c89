// Package config holds the application configuration structures and
// validation.
package config

import (
	"fmt"
	"time"
)

// Config holds the application configuration
type Config struct {
	Bot       BotConfig
	Admin     AdminConfig
	Database  DatabaseConfig
	Provider  ProviderConfig
	Locale    LocaleConfig
	Broadcast BroadcastConfig
	Logging   LoggingConfig
}

// BotConfig holds Telegram-related configuration
type BotConfig struct {
	Token string
}

// AdminConfig holds admin panel configuration
type AdminConfig struct {
	Port            string
	DefaultUsername string
	DefaultPassword string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string
}

// ProviderConfig holds affiliate API credentials and tuning
type ProviderConfig struct {
	AppKey      string
	AppSecret   string
	TrackingID  string
	Gateway     string
	SignMethod  string
	Timeout     time.Duration
	CacheTTL    time.Duration
	MinInterval time.Duration
}

// LocaleConfig drives the currency, language and ship-to country sent
// to the provider.
type LocaleConfig struct {
	Currency string
	Language string
	Country  string
}

// BroadcastConfig holds broadcast pacing configuration
type BroadcastConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot token cannot be empty")
	}

	if c.Admin.Port == "" {
		return fmt.Errorf("admin port cannot be empty")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.Provider.AppKey == "" {
		return fmt.Errorf("provider app key cannot be empty")
	}

	if c.Provider.AppSecret == "" {
		return fmt.Errorf("provider app secret cannot be empty")
	}

	switch c.Provider.SignMethod {
	case "sha256", "md5":
	default:
		return fmt.Errorf("provider sign method must be sha256 or md5, got: %q", c.Provider.SignMethod)
	}

	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got: %v", c.Provider.Timeout)
	}

	if c.Provider.CacheTTL <= 0 {
		return fmt.Errorf("provider cache TTL must be positive, got: %v", c.Provider.CacheTTL)
	}

	if c.Provider.MinInterval < 0 {
		return fmt.Errorf("provider min interval cannot be negative, got: %v", c.Provider.MinInterval)
	}

	if c.Locale.Currency == "" || c.Locale.Language == "" || c.Locale.Country == "" {
		return fmt.Errorf("locale currency, language and country must all be set")
	}

	if c.Broadcast.BatchSize <= 0 {
		return fmt.Errorf("broadcast batch size must be positive, got: %d", c.Broadcast.BatchSize)
	}

	if c.Broadcast.BatchDelay < 0 {
		return fmt.Errorf("broadcast batch delay cannot be negative, got: %v", c.Broadcast.BatchDelay)
	}

	return nil
}
