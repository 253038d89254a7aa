package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// ArtifactStore is a read-through domain.BlobReader that keeps object bytes
// in Redis, keyed by object key and version, so that replicas behind a slow
// backend fetch each artifact once. Redis failures fall back to the inner
// store.
type ArtifactStore struct {
	inner  domain.BlobReader
	c      *Client
	rdb    *redis.Client
	locks  domain.LockManager
	ttl    time.Duration
	maxLen int64
	logger *slog.Logger
}

// ArtifactStoreConfig tunes an ArtifactStore.
type ArtifactStoreConfig struct {
	// TTL is how long cached bytes live in Redis.
	TTL time.Duration
	// MaxBytes skips caching objects larger than this. Zero means no limit.
	MaxBytes int64
	// Namespace separates model artifacts from label files.
	Namespace string
}

// NewArtifactStore wraps inner. locks may be nil, in which case concurrent
// misses all read the inner store.
func NewArtifactStore(c *Client, inner domain.BlobReader, locks domain.LockManager, cfg ArtifactStoreConfig, logger *slog.Logger) *ArtifactStore {
	ns := cfg.Namespace
	if ns == "" {
		ns = "blob"
	}
	return &ArtifactStore{
		inner:  inner,
		c:      &Client{rdb: c.Underlying(), prefix: c.Key(ns)},
		rdb:    c.Underlying(),
		locks:  locks,
		ttl:    cfg.TTL,
		maxLen: cfg.MaxBytes,
		logger: logger.With(slog.String("component", "redis_artifact_store"), slog.String("namespace", ns)),
	}
}

func (s *ArtifactStore) cacheKey(key, version string) string {
	return s.c.Key(key, version)
}

// Get returns cached bytes for the current version of key, filling the cache
// from the inner store on a miss.
func (s *ArtifactStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	info, err := s.inner.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	ck := s.cacheKey(key, info.Version())

	data, err := s.rdb.Get(ctx, ck).Bytes()
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "artifact cache hit", slog.String("key", key))
		return io.NopCloser(bytes.NewReader(data)), nil
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "artifact cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return s.inner.Get(ctx, key)
	}

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, ck, 30*time.Second)
		if err != nil {
			// Someone else is filling; serve from the origin.
			return s.inner.Get(ctx, key)
		}
		defer unlock()

		// A fill may have completed while the lock was contended.
		if data, err := s.rdb.Get(ctx, ck).Bytes(); err == nil {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	data, err = s.fill(ctx, key, ck)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *ArtifactStore) fill(ctx context.Context, key, ck string) ([]byte, error) {
	rc, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("redis: read %s from origin: %w", key, err)
	}
	if s.maxLen > 0 && int64(len(data)) > s.maxLen {
		return data, nil
	}
	if err := s.rdb.Set(ctx, ck, data, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "artifact cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return data, nil
}

// Stat delegates to the inner store.
func (s *ArtifactStore) Stat(ctx context.Context, key string) (domain.BlobInfo, error) {
	return s.inner.Stat(ctx, key)
}

// List delegates to the inner store.
func (s *ArtifactStore) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	return s.inner.List(ctx, prefix)
}

// Exists delegates to the inner store.
func (s *ArtifactStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

// Location delegates to the inner store.
func (s *ArtifactStore) Location(key string) string {
	return s.inner.Location(key)
}

// Root delegates to the inner store.
func (s *ArtifactStore) Root(ctx context.Context) (string, bool) {
	return s.inner.Root(ctx)
}

// Compile-time interface check.
var _ domain.BlobReader = (*ArtifactStore)(nil)
