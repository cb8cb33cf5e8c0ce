package redis

import (
	"context"
	"fmt"
	"time"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// CaptureStore keeps each session's camera-to-path map in a Redis hash.
// Retention rides on key TTL, refreshed by every upload, so idle sessions
// expire without a janitor.
type CaptureStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

func NewCaptureStore(client *redis.Client, retention time.Duration) ports.CaptureStore {
	return &CaptureStore{
		client:    client,
		prefix:    "courtstream:capture:",
		retention: retention,
	}
}

func (s *CaptureStore) sessionKey(session domain.SessionID) string {
	return s.prefix + string(session)
}

func (s *CaptureStore) Put(ctx context.Context, session domain.SessionID, cam domain.CamID, path string) error {
	key := s.sessionKey(session)
	if err := s.client.HSet(ctx, key, string(cam), path).Err(); err != nil {
		return fmt.Errorf("failed to record upload in Redis: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to refresh session TTL: %w", err)
	}
	return nil
}

func (s *CaptureStore) Files(ctx context.Context, session domain.SessionID) (map[domain.CamID]string, error) {
	entries, err := s.client.HGetAll(ctx, s.sessionKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get capture session from Redis: %w", err)
	}
	if len(entries) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	files := make(map[domain.CamID]string, len(entries))
	for cam, path := range entries {
		files[domain.CamID(cam)] = path
	}
	return files, nil
}
