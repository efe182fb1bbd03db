package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"ramadantracker.app/errors"
)

// Storage backend identifiers accepted by STORAGE_TYPE.
const (
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
)

// Config represents the application configuration structure
type Config struct {
	Server    ServerConfig    `split_words:"true"`
	Database  DatabaseConfig  `split_words:"true"`
	Storage   StorageConfig   `split_words:"true"`
	Redis     RedisConfig     `split_words:"true"`
	Push      PushConfig      `split_words:"true"`
	Scheduler SchedulerConfig `split_words:"true"`
	StaticDir string          `envconfig:"STATIC_DIR" default:"public"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"ramadantracker"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// GetDSN returns a formatted database connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// StorageConfig selects the subscription store backend
type StorageConfig struct {
	Type string `envconfig:"STORAGE_TYPE" default:"postgres"`
}

// RedisConfig contains connection settings for the redis store backend
type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string `envconfig:"REDIS_PASSWORD" default:""`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
}

// DialTimeoutDuration returns the dial timeout as a time.Duration
func (r RedisConfig) DialTimeoutDuration() time.Duration {
	return time.Duration(r.DialTimeout) * time.Second
}

// ReadTimeoutDuration returns the read timeout as a time.Duration
func (r RedisConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(r.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration
func (r RedisConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(r.WriteTimeout) * time.Second
}

// PushConfig contains the VAPID key material and outbound send settings
type PushConfig struct {
	VAPIDPublicKey  string  `envconfig:"VAPID_PUBLIC_KEY" required:"true"`
	VAPIDPrivateKey string  `envconfig:"VAPID_PRIVATE_KEY" required:"true"`
	Subject         string  `envconfig:"PUSH_SUBJECT" default:"mailto:admin@example.com"`
	TTL             int     `envconfig:"PUSH_TTL" default:"300"`
	SendTimeout     int     `envconfig:"PUSH_SEND_TIMEOUT" default:"10"`
	RatePerSecond   float64 `envconfig:"PUSH_RATE_PER_SECOND" default:"50"`
	RateBurst       int     `envconfig:"PUSH_RATE_BURST" default:"10"`
}

// SchedulerConfig contains settings for the reminder dispatch scheduler
type SchedulerConfig struct {
	ScanInterval int `envconfig:"SCAN_INTERVAL_SECONDS" default:"60"`
	Concurrency  int `envconfig:"DISPATCH_CONCURRENCY" default:"16"`
	PageSize     int `envconfig:"SCAN_PAGE_SIZE" default:"1000"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Storage.Type == StoragePostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if c.Storage.Type == StorageRedis {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	if err := c.Push.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// Validate checks database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > 65535 {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

// Validate checks the storage backend selection
func (s *StorageConfig) Validate() error {
	switch s.Type {
	case StoragePostgres, StorageRedis, StorageMemory:
		return nil
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("STORAGE_TYPE must be one of: %s, %s, %s", StoragePostgres, StorageRedis, StorageMemory), nil)
}

// Validate checks redis configuration
func (r *RedisConfig) Validate() error {
	if r.Addr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty", nil)
	}
	if r.DB < 0 {
		return errors.NewConfigurationError("REDIS_DB cannot be negative", nil)
	}
	return nil
}

// Validate checks push configuration. Key material is only checked for shape
// here; the push package rejects keys that do not decode to a valid P-256 pair.
func (p *PushConfig) Validate() error {
	if p.VAPIDPublicKey == "" {
		return errors.NewConfigurationError("VAPID_PUBLIC_KEY is required", nil)
	}
	if p.VAPIDPrivateKey == "" {
		return errors.NewConfigurationError("VAPID_PRIVATE_KEY is required", nil)
	}
	if _, err := base64.RawURLEncoding.DecodeString(p.VAPIDPublicKey); err != nil {
		return errors.NewConfigurationError("VAPID_PUBLIC_KEY must be URL-safe base64 without padding", err)
	}
	if _, err := base64.RawURLEncoding.DecodeString(p.VAPIDPrivateKey); err != nil {
		return errors.NewConfigurationError("VAPID_PRIVATE_KEY must be URL-safe base64 without padding", err)
	}
	if p.Subject == "" {
		return errors.NewConfigurationError("PUSH_SUBJECT cannot be empty", nil)
	}
	if !strings.HasPrefix(p.Subject, "mailto:") && !strings.HasPrefix(p.Subject, "https://") {
		return errors.NewConfigurationError("PUSH_SUBJECT must be a mailto: or https:// URI", nil)
	}
	if p.TTL < 0 {
		return errors.NewConfigurationError("PUSH_TTL cannot be negative", nil)
	}
	if p.SendTimeout < 1 {
		return errors.NewConfigurationError("PUSH_SEND_TIMEOUT must be at least 1 second", nil)
	}
	if p.RatePerSecond <= 0 {
		return errors.NewConfigurationError("PUSH_RATE_PER_SECOND must be positive", nil)
	}
	if p.RateBurst < 1 {
		return errors.NewConfigurationError("PUSH_RATE_BURST must be at least 1", nil)
	}
	return nil
}

// Validate checks scheduler configuration. Eligibility matches the reminder
// minute exactly, so a scan interval above 60 seconds would silently skip
// subscribers whose due minute falls between ticks.
func (s *SchedulerConfig) Validate() error {
	if s.ScanInterval < 1 {
		return errors.NewConfigurationError("SCAN_INTERVAL_SECONDS must be at least 1 second", nil)
	}
	if s.ScanInterval > 60 {
		return errors.NewConfigurationError("SCAN_INTERVAL_SECONDS cannot exceed 60 seconds", nil)
	}
	if s.Concurrency < 1 {
		return errors.NewConfigurationError("DISPATCH_CONCURRENCY must be at least 1", nil)
	}
	if s.PageSize < 1 {
		return errors.NewConfigurationError("SCAN_PAGE_SIZE must be at least 1", nil)
	}
	return nil
}
