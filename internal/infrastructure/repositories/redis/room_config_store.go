package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RoomConfigStore reads per-room access configuration from Redis. The
// stream-management collaborator writes these keys; the core performs the
// single key-value lookup per join the design allows.
type RoomConfigStore struct {
	client *redis.Client
	prefix string
}

func NewRoomConfigStore(client *redis.Client) ports.RoomConfigStore {
	return &RoomConfigStore{
		client: client,
		prefix: "courtstream:room:",
	}
}

func (s *RoomConfigStore) roomKey(room domain.RoomID) string {
	return s.prefix + string(room)
}

func (s *RoomConfigStore) Get(ctx context.Context, room domain.RoomID) (*domain.RoomAccessConfig, error) {
	data, err := s.client.Get(ctx, s.roomKey(room)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room config from Redis: %w", err)
	}

	var cfg domain.RoomAccessConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room config: %w", err)
	}
	return &cfg, nil
}

func (s *RoomConfigStore) Set(ctx context.Context, cfg *domain.RoomAccessConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal room config: %w", err)
	}
	if err := s.client.Set(ctx, s.roomKey(cfg.Room), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set room config in Redis: %w", err)
	}
	return nil
}
