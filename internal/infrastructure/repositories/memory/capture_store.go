package memory

import (
	"context"
	"sync"
	"time"

	"courtstream/internal/core/domain"

	"go.uber.org/zap"
)

// CaptureStore keeps per-session camera upload maps in memory. Sessions
// expire a fixed retention after their last upload; a janitor goroutine
// sweeps stale entries. Files on disk are an external cleanup concern.
type CaptureStore struct {
	sessions map[domain.SessionID]*domain.CaptureSession
	mu       sync.RWMutex

	retention time.Duration
	logger    *zap.SugaredLogger
}

func NewCaptureStore(retention time.Duration, logger *zap.SugaredLogger) *CaptureStore {
	return &CaptureStore{
		sessions:  make(map[domain.SessionID]*domain.CaptureSession),
		retention: retention,
		logger:    logger,
	}
}

func (s *CaptureStore) Put(ctx context.Context, session domain.SessionID, cam domain.CamID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.sessions[session]
	if !exists {
		entry = &domain.CaptureSession{
			ID:    session,
			Files: make(map[domain.CamID]string),
		}
		s.sessions[session] = entry
	}
	entry.Files[cam] = path
	entry.LastSeen = time.Now()
	return nil
}

func (s *CaptureStore) Files(ctx context.Context, session domain.SessionID) (map[domain.CamID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.sessions[session]
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	files := make(map[domain.CamID]string, len(entry.Files))
	for cam, path := range entry.Files {
		files[cam] = path
	}
	return files, nil
}

// StartJanitor evicts sessions idle past the retention window until the
// context is cancelled.
func (s *CaptureStore) StartJanitor(ctx context.Context, sweepInterval time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *CaptureStore) sweep() {
	cutoff := time.Now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.sessions {
		if entry.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			if s.logger != nil {
				s.logger.Infow("evicted stale capture session", "session_id", id, "last_seen", entry.LastSeen)
			}
		}
	}
}
