package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "server/saved_models", cfg.Models.Dir)
	assert.Equal(t, "api/labels.json", cfg.Labels.Path)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[server]
port = 9000

[models]
dir = "/srv/models"

[cache]
enabled = true
ttl = "90s"
`), 0o644))

	t.Setenv("PORT", "")
	t.Setenv("PLAYERVALUE_SERVER_PORT", "9100")
	t.Setenv("PLAYERVALUE_NOTIFY_EVENTS", "inference, configuration ,")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/srv/models", cfg.Models.Dir)
	assert.Equal(t, "json", cfg.Models.Extension)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Duration)
	assert.Equal(t, []string{"inference", "configuration"}, cfg.Notify.Events)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Models, cfg.Models)
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[cache]\nttl = \"soon\"\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Server.Port = 0
	cfg.Models.Backend = "ftp"
	cfg.Models.Extension = ".pkl"
	cfg.Server.RateLimit.Enabled = true
	cfg.Notify.TelegramToken = "t"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown log_level "loud"`,
		"server: port must be 1-65535",
		`models: unknown backend "ftp"`,
		"models: extension must be a bare suffix",
		"server: rate_limit requires redis.enabled",
		"notify: telegram_token and telegram_chat_id must be set together",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	cfg := Defaults()
	cfg.Models.Backend = "s3"
	cfg.S3.Bucket = ""
	assert.ErrorContains(t, cfg.Validate(), "s3: bucket must not be empty")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.S3.SecretKey = "secret"
	cfg.Redis.Password = "pw"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.S3.SecretKey)
	assert.Equal(t, "***", out.Redis.Password)
	assert.Equal(t, "***", out.Notify.DiscordWebhookURL)
	assert.Empty(t, out.S3.AccessKey)
	assert.Equal(t, "secret", cfg.S3.SecretKey)

	out.Server.CORSOrigins[0] = "changed"
	assert.Equal(t, "*", cfg.Server.CORSOrigins[0])
}
