// Package cache keeps the incident snapshot in Redis between fetches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/metrics"
)

// ErrMiss is returned by a Store that has no value for a key
var ErrMiss = errors.New("cache: miss")

const snapshotKey = "incidents:snapshot"

// Store is the byte-level cache backend
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// OpenRedis returns nil when no address is configured
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})
}

// RedisStore adapts a go-redis client to Store
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore namespaces every key under prefix
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get failed: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set failed: %w", err)
	}
	return nil
}

// Repository caches FetchSnapshot of an inner repository. Filter queries and health
// checks go straight to the inner repository. A broken cache never fails a fetch.
type Repository struct {
	inner  domain.IncidentRepository
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewRepository wraps inner with a snapshot cache
func NewRepository(inner domain.IncidentRepository, store Store, ttl time.Duration, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{inner: inner, store: store, ttl: ttl, logger: logger}
}

// FetchSnapshot serves the cached snapshot, loading it once on a miss
func (r *Repository) FetchSnapshot(ctx context.Context) ([]domain.Incident, error) {
	data, err := r.store.Get(ctx, snapshotKey)
	switch {
	case err == nil:
		var incidents []domain.Incident
		if uerr := json.Unmarshal(data, &incidents); uerr == nil && incidents != nil {
			metrics.CacheHitsTotal.Inc()
			return incidents, nil
		}
		r.logger.Warn("discarding undecodable cached snapshot")
	case !errors.Is(err, ErrMiss):
		r.logger.Warn("snapshot cache unavailable", zap.Error(err))
	}
	metrics.CacheMissesTotal.Inc()

	v, err, _ := r.group.Do(snapshotKey, func() (any, error) {
		incidents, err := r.inner.FetchSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		r.fill(ctx, incidents)
		return incidents, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Incident), nil
}

func (r *Repository) fill(ctx context.Context, incidents []domain.Incident) {
	data, err := json.Marshal(incidents)
	if err != nil {
		r.logger.Warn("failed to encode snapshot for cache", zap.Error(err))
		return
	}
	if err := r.store.Set(ctx, snapshotKey, data, r.ttl); err != nil {
		r.logger.Warn("failed to store snapshot in cache", zap.Error(err))
	}
}

// FilterIncidents delegates to the inner repository
func (r *Repository) FilterIncidents(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	return r.inner.FilterIncidents(ctx, p)
}

// Health delegates to the inner repository
func (r *Repository) Health(ctx context.Context) error {
	return r.inner.Health(ctx)
}
