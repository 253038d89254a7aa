// Package config defines the top-level configuration for the player value
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PLAYERVALUE_* environment variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Models     ModelsConfig     `toml:"models"`
	Labels     LabelsConfig     `toml:"labels"`
	Validation ValidationConfig `toml:"validation"`
	Cache      CacheConfig      `toml:"cache"`
	S3         S3Config         `toml:"s3"`
	Redis      RedisConfig      `toml:"redis"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host             string          `toml:"host"`
	Port             int             `toml:"port"`
	CORSOrigins      []string        `toml:"cors_origins"`
	AllowCredentials bool            `toml:"allow_credentials"`
	ReadTimeout      duration        `toml:"read_timeout"`
	WriteTimeout     duration        `toml:"write_timeout"`
	ShutdownTimeout  duration        `toml:"shutdown_timeout"`
	MaxBodyBytes     int64           `toml:"max_body_bytes"`
	RateLimit        RateLimitConfig `toml:"rate_limit"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RateLimitConfig bounds requests per client IP. It requires Redis.
type RateLimitConfig struct {
	Enabled  bool     `toml:"enabled"`
	Requests int      `toml:"requests"`
	Window   duration `toml:"window"`
}

// ModelsConfig locates the per-position model artifacts.
type ModelsConfig struct {
	// Backend is "fs" or "s3".
	Backend string `toml:"backend"`
	// Dir is the artifact directory for the fs backend, or the key prefix
	// for the s3 backend.
	Dir string `toml:"dir"`
	// Extension is the artifact file extension without the dot.
	Extension     string `toml:"extension"`
	VerifyOnStart bool   `toml:"verify_on_start"`
}

// LabelsConfig locates the position label mapping file.
type LabelsConfig struct {
	Backend string `toml:"backend"`
	// Path is a filesystem path for the fs backend, or an object key for s3.
	Path string `toml:"path"`
}

// ValidationConfig tunes input validation.
type ValidationConfig struct {
	// Strict rejects request fields outside the player schema.
	Strict bool `toml:"strict"`
}

// CacheConfig controls the in-process model cache.
type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	TTL     duration `toml:"ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RedisConfig holds Redis connection parameters and the shared artifact
// cache settings.
type RedisConfig struct {
	Enabled          bool     `toml:"enabled"`
	Addr             string   `toml:"addr"`
	Password         string   `toml:"password"`
	DB               int      `toml:"db"`
	PoolSize         int      `toml:"pool_size"`
	MaxRetries       int      `toml:"max_retries"`
	TLSEnabled       bool     `toml:"tls_enabled"`
	KeyPrefix        string   `toml:"key_prefix"`
	ArtifactTTL      duration `toml:"artifact_ttl"`
	ArtifactMaxBytes int64    `toml:"artifact_max_bytes"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	Cooldown          duration `toml:"cooldown"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			CORSOrigins:      []string{"*"},
			AllowCredentials: true,
			ReadTimeout:      duration{15 * time.Second},
			WriteTimeout:     duration{30 * time.Second},
			ShutdownTimeout:  duration{10 * time.Second},
			MaxBodyBytes:     1 << 20,
			RateLimit: RateLimitConfig{
				Enabled:  false,
				Requests: 120,
				Window:   duration{time.Minute},
			},
		},
		Models: ModelsConfig{
			Backend:   "fs",
			Dir:       "server/saved_models",
			Extension: "json",
		},
		Labels: LabelsConfig{
			Backend: "fs",
			Path:    "api/labels.json",
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     duration{10 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "playervalue-models",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Redis: RedisConfig{
			Enabled:          false,
			Addr:             "localhost:6379",
			DB:               0,
			PoolSize:         20,
			MaxRetries:       3,
			KeyPrefix:        "playervalue",
			ArtifactTTL:      duration{time.Hour},
			ArtifactMaxBytes: 64 << 20,
		},
		Notify: NotifyConfig{
			Events:   []string{"configuration", "mapping_integrity", "model_not_found", "inference"},
			Cooldown: duration{5 * time.Minute},
		},
		LogLevel: "info",
	}
}

var validBackends = map[string]bool{
	"fs": true,
	"s3": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "server: max_body_bytes must be > 0")
	}
	if c.Server.RateLimit.Enabled {
		if !c.Redis.Enabled {
			errs = append(errs, "server: rate_limit requires redis.enabled")
		}
		if c.Server.RateLimit.Requests < 1 {
			errs = append(errs, "server: rate_limit.requests must be >= 1")
		}
		if c.Server.RateLimit.Window.Duration <= 0 {
			errs = append(errs, "server: rate_limit.window must be > 0")
		}
	}

	// Models
	if !validBackends[c.Models.Backend] {
		errs = append(errs, fmt.Sprintf("models: unknown backend %q (valid: fs, s3)", c.Models.Backend))
	}
	if c.Models.Backend == "fs" && strings.TrimSpace(c.Models.Dir) == "" {
		errs = append(errs, "models: dir must not be empty")
	}
	if c.Models.Extension == "" || strings.ContainsAny(c.Models.Extension, "./") {
		errs = append(errs, fmt.Sprintf("models: extension must be a bare suffix like \"json\", got %q", c.Models.Extension))
	}

	// Labels
	if !validBackends[c.Labels.Backend] {
		errs = append(errs, fmt.Sprintf("labels: unknown backend %q (valid: fs, s3)", c.Labels.Backend))
	}
	if strings.TrimSpace(c.Labels.Path) == "" {
		errs = append(errs, "labels: path must not be empty")
	}

	// Cache
	if c.Cache.TTL.Duration < 0 {
		errs = append(errs, "cache: ttl must be >= 0")
	}

	// S3
	if c.Models.Backend == "s3" || c.Labels.Backend == "s3" {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.ArtifactTTL.Duration <= 0 {
			errs = append(errs, "redis: artifact_ttl must be > 0")
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
