package memory

import (
	"context"
	"sync"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
)

// RoomConfigStore holds room access configuration in memory. In production
// the stream-management collaborator owns this data; the memory store backs
// single-node deployments and tests.
type RoomConfigStore struct {
	configs map[domain.RoomID]*domain.RoomAccessConfig
	mu      sync.RWMutex
}

func NewRoomConfigStore() ports.RoomConfigStore {
	return &RoomConfigStore{
		configs: make(map[domain.RoomID]*domain.RoomAccessConfig),
	}
}

func (s *RoomConfigStore) Get(ctx context.Context, room domain.RoomID) (*domain.RoomAccessConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.configs[room]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (s *RoomConfigStore) Set(ctx context.Context, cfg *domain.RoomAccessConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *cfg
	s.configs[cfg.Room] = &copied
	return nil
}
