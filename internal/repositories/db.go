// Package repositories provides data access on top of the record store.
package repositories

import (
	"context"
	"fmt"
	"time"

	"govpay/internal/config"
	"govpay/internal/repositories/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend is an opened record store plus the Redis connection, if the
// Redis backend was selected.
type Backend struct {
	Store store.RecordStore
	Redis *redis.Client

	ping func(ctx context.Context) error
}

// OpenBackend connects the store selected by STORE_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	var (
		raw  store.RecordStore
		rdb  *redis.Client
		ping func(ctx context.Context) error
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		raw = store.NewMemoryStore()
	case config.BackendRedis:
		rdb = store.NewRedisClient(&store.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs := store.NewRedisStore(rdb, "govpay:")
		if err := rs.HealthCheck(ctx); err != nil {
			return nil, err
		}
		raw, ping = rs, rs.HealthCheck
	case config.BackendPostgres:
		ps, err := store.OpenPostgres(store.DBConfig{
			Host:            cfg.DBHost,
			Port:            cfg.DBPort,
			User:            cfg.DBUser,
			Password:        cfg.DBPassword,
			Name:            cfg.DBName,
			SSLMode:         cfg.DBSSLMode,
			MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		})
		if err != nil {
			return nil, err
		}
		if err := ps.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		raw, ping = ps, ps.HealthCheck
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	log.Info("record store connected", zap.String("backend", cfg.StoreBackend))
	return &Backend{Store: store.WithTimeout(raw, cfg.StoreTimeout), Redis: rdb, ping: ping}, nil
}

// HealthCheck pings the underlying connection. The memory store is always
// healthy.
func (b *Backend) HealthCheck(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the store connection.
func (b *Backend) Close() error {
	return b.Store.Close()
}
