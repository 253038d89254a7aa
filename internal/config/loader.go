package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PLAYERVALUE_* environment variable overrides,
// and returns the final Config. An empty path skips the file. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PLAYERVALUE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setStr(&cfg.Server.Host, "PLAYERVALUE_SERVER_HOST")
	setInt(&cfg.Server.Port, "PLAYERVALUE_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // platform convention
	setStringSlice(&cfg.Server.CORSOrigins, "PLAYERVALUE_SERVER_CORS_ORIGINS")
	setBool(&cfg.Server.AllowCredentials, "PLAYERVALUE_SERVER_ALLOW_CREDENTIALS")
	setDuration(&cfg.Server.ReadTimeout, "PLAYERVALUE_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "PLAYERVALUE_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "PLAYERVALUE_SERVER_SHUTDOWN_TIMEOUT")
	setInt64(&cfg.Server.MaxBodyBytes, "PLAYERVALUE_SERVER_MAX_BODY_BYTES")
	setBool(&cfg.Server.RateLimit.Enabled, "PLAYERVALUE_SERVER_RATE_LIMIT_ENABLED")
	setInt(&cfg.Server.RateLimit.Requests, "PLAYERVALUE_SERVER_RATE_LIMIT_REQUESTS")
	setDuration(&cfg.Server.RateLimit.Window, "PLAYERVALUE_SERVER_RATE_LIMIT_WINDOW")

	// ── Models ──
	setStr(&cfg.Models.Backend, "PLAYERVALUE_MODELS_BACKEND")
	setStr(&cfg.Models.Dir, "PLAYERVALUE_MODELS_DIR")
	setStr(&cfg.Models.Dir, "PLAYERVALUE_MODEL_DIR") // compatibility alias
	setStr(&cfg.Models.Extension, "PLAYERVALUE_MODELS_EXTENSION")
	setBool(&cfg.Models.VerifyOnStart, "PLAYERVALUE_MODELS_VERIFY_ON_START")

	// ── Labels ──
	setStr(&cfg.Labels.Backend, "PLAYERVALUE_LABELS_BACKEND")
	setStr(&cfg.Labels.Path, "PLAYERVALUE_LABELS_PATH")

	// ── Validation / cache ──
	setBool(&cfg.Validation.Strict, "PLAYERVALUE_VALIDATION_STRICT")
	setBool(&cfg.Cache.Enabled, "PLAYERVALUE_CACHE_ENABLED")
	setDuration(&cfg.Cache.TTL, "PLAYERVALUE_CACHE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PLAYERVALUE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PLAYERVALUE_S3_REGION")
	setStr(&cfg.S3.Bucket, "PLAYERVALUE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PLAYERVALUE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PLAYERVALUE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PLAYERVALUE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PLAYERVALUE_S3_FORCE_PATH_STYLE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PLAYERVALUE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PLAYERVALUE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PLAYERVALUE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PLAYERVALUE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PLAYERVALUE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PLAYERVALUE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PLAYERVALUE_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "PLAYERVALUE_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.ArtifactTTL, "PLAYERVALUE_REDIS_ARTIFACT_TTL")
	setInt64(&cfg.Redis.ArtifactMaxBytes, "PLAYERVALUE_REDIS_ARTIFACT_MAX_BYTES")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PLAYERVALUE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PLAYERVALUE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PLAYERVALUE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PLAYERVALUE_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.Cooldown, "PLAYERVALUE_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "PLAYERVALUE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
