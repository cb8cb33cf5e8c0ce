package services

import (
	"sync"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
)

// PresenceService keeps a live viewer count per room. Counts move on viewer
// admission and viewer disconnect only and never go below zero.
type PresenceService struct {
	mu      sync.Mutex
	counts  map[domain.RoomID]int
	metrics ports.MetricsCollector
}

func NewPresenceService(metrics ports.MetricsCollector) *PresenceService {
	return &PresenceService{
		counts:  make(map[domain.RoomID]int),
		metrics: metrics,
	}
}

// Increment bumps the room's viewer count and returns the new value.
func (s *PresenceService) Increment(room domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[room]++
	n := s.counts[room]
	if s.metrics != nil {
		s.metrics.SetViewerCount(room, n)
	}
	return n
}

// Decrement lowers the room's viewer count, clamping at zero.
func (s *PresenceService) Decrement(room domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.counts[room] - 1
	if n <= 0 {
		n = 0
		delete(s.counts, room)
	} else {
		s.counts[room] = n
	}
	if s.metrics != nil {
		s.metrics.SetViewerCount(room, n)
	}
	return n
}

// Count returns the current viewer count for a room.
func (s *PresenceService) Count(room domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[room]
}
