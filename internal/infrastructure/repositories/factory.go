package repositories

import (
	"context"
	"time"

	"courtstream/internal/core/ports"
	"courtstream/internal/infrastructure/repositories/memory"
	redisrepo "courtstream/internal/infrastructure/repositories/redis"
	"courtstream/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	cfg         *config.Config
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		cfg:      cfg,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateConnectionRegistry always returns the in-process registry: a
// connection's entry is only meaningful on the node holding its socket.
func (f *RepositoryFactory) CreateConnectionRegistry() ports.ConnectionRegistry {
	return memory.NewConnectionRegistry()
}

// CreateRoomConfigStore creates a room config store (Redis or memory with fallback)
func (f *RepositoryFactory) CreateRoomConfigStore() ports.RoomConfigStore {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRoomConfigStore(f.redisClient)
	}
	return memory.NewRoomConfigStore()
}

// CreateCaptureStore creates a capture store (Redis or memory with fallback).
// The memory store needs its janitor started; the Redis store expires
// sessions via key TTL.
func (f *RepositoryFactory) CreateCaptureStore(ctx context.Context, retention, sweepInterval time.Duration) ports.CaptureStore {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewCaptureStore(f.redisClient, retention)
	}
	store := memory.NewCaptureStore(retention, f.logger)
	store.StartJanitor(ctx, sweepInterval)
	return store
}

// Close releases backend connections.
func (f *RepositoryFactory) Close() error {
	return redisrepo.CloseRedisClient(f.redisClient)
}
