package app

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	fsblob "github.com/alanyoungcy/playervalue/internal/blob/fs"
	s3blob "github.com/alanyoungcy/playervalue/internal/blob/s3"
	"github.com/alanyoungcy/playervalue/internal/cache/redis"
	"github.com/alanyoungcy/playervalue/internal/config"
	"github.com/alanyoungcy/playervalue/internal/domain"
	"github.com/alanyoungcy/playervalue/internal/labels"
	"github.com/alanyoungcy/playervalue/internal/metrics"
	"github.com/alanyoungcy/playervalue/internal/model"
	"github.com/alanyoungcy/playervalue/internal/modelcache"
	"github.com/alanyoungcy/playervalue/internal/notify"
	"github.com/alanyoungcy/playervalue/internal/service"
)

// Dependencies bundles everything the serving and CLI paths need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Storage
	ModelStore domain.BlobReader
	LabelStore domain.BlobReader

	// Caches
	ModelCache  *modelcache.Cache[model.Artifact] // nil when disabled
	RateLimiter domain.RateLimiter                // nil without Redis
	LockManager domain.LockManager                // nil without Redis

	// Pipeline
	Resolver  *labels.Resolver
	Selector  *model.Selector
	Predictor *service.Predictor

	// Observability
	Metrics  *metrics.Metrics
	Notifier *notify.Notifier
}

// needsS3 returns true when either the models or the label file live in S3.
func needsS3(cfg *config.Config) bool {
	return cfg.Models.Backend == "s3" || cfg.Labels.Backend == "s3"
}

// Wire constructs all dependencies based on the provided configuration and
// returns them together with a cleanup function that should be deferred by
// the caller.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Redis (optional: shared artifact bytes, fill locks, rate limiting) ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
	}

	// --- S3 blob storage (only when a backend asks for it) ---
	var s3Client *s3blob.Client
	if needsS3(cfg) {
		var err error
		s3Client, err = s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
	}

	// --- Stores ---
	modelStore, err := newStore(cfg.Models.Backend, cfg.Models.Dir, s3Client)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: model store: %w", err)
	}
	labelDir, labelKey := splitLabelPath(cfg.Labels.Backend, cfg.Labels.Path)
	labelStore, err := newStore(cfg.Labels.Backend, labelDir, s3Client)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: label store: %w", err)
	}

	if redisClient != nil {
		modelStore = redis.NewArtifactStore(redisClient, modelStore, deps.LockManager, redis.ArtifactStoreConfig{
			TTL:       cfg.Redis.ArtifactTTL.Duration,
			MaxBytes:  cfg.Redis.ArtifactMaxBytes,
			Namespace: "models",
		}, logger)
		labelStore = redis.NewArtifactStore(redisClient, labelStore, deps.LockManager, redis.ArtifactStoreConfig{
			TTL:       cfg.Redis.ArtifactTTL.Duration,
			MaxBytes:  cfg.Redis.ArtifactMaxBytes,
			Namespace: "labels",
		}, logger)
	}
	deps.ModelStore = modelStore
	deps.LabelStore = labelStore

	// --- In-process model cache ---
	var artifactCache model.Cache
	if cfg.Cache.Enabled {
		deps.ModelCache = modelcache.New[model.Artifact](cfg.Cache.TTL.Duration)
		artifactCache = deps.ModelCache
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, cfg.Notify.Cooldown.Duration, logger)

	// --- Pipeline ---
	deps.Metrics = metrics.New()
	deps.Resolver = labels.NewResolver(labelStore, labelKey, logger)
	deps.Selector = model.NewSelector(modelStore, cfg.Models.Extension, artifactCache, logger)

	var alerter service.Alerter
	if deps.Notifier.Enabled() {
		alerter = deps.Notifier
	}
	deps.Predictor = service.NewPredictor(deps.Resolver, deps.Selector, deps.Metrics, alerter, service.Options{
		StrictSchema: cfg.Validation.Strict,
	}, logger)

	return deps, cleanup, nil
}

// newStore builds a read-only store rooted at dir. Filesystem roots are made
// absolute so diagnostics show where the service actually looks.
func newStore(backend, dir string, s3Client *s3blob.Client) (domain.BlobReader, error) {
	switch backend {
	case "fs":
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		return fsblob.New(abs), nil
	case "s3":
		if s3Client == nil {
			return nil, fmt.Errorf("s3 backend selected but no s3 client configured")
		}
		return s3blob.NewReader(s3Client, dir), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// splitLabelPath separates the label file into its containing directory (or
// key prefix) and its name.
func splitLabelPath(backend, p string) (dir, key string) {
	if backend == "s3" {
		p = strings.TrimPrefix(p, "/")
		dir = path.Dir(p)
		if dir == "." {
			dir = ""
		}
		return dir, path.Base(p)
	}
	return filepath.Dir(p), filepath.Base(p)
}
