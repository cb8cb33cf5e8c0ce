package memory

import (
	"context"
	"sync"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
)

// ConnectionRegistry is the in-process authoritative map of live
// connections. Mutation follows single-writer-per-connection discipline:
// only a connection's own join and disconnect handlers touch its entry.
type ConnectionRegistry struct {
	conns map[domain.ConnectionID]*domain.Connection
	mu    sync.RWMutex
}

func NewConnectionRegistry() ports.ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[domain.ConnectionID]*domain.Connection),
	}
}

func (r *ConnectionRegistry) Record(ctx context.Context, conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *conn
	r.conns[conn.ID] = &copied
	return nil
}

func (r *ConnectionRegistry) Lookup(ctx context.Context, id domain.ConnectionID) (*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.conns[id]
	if !exists {
		return nil, domain.ErrConnectionNotFound
	}
	copied := *conn
	return &copied, nil
}

func (r *ConnectionRegistry) Remove(ctx context.Context, id domain.ConnectionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; !exists {
		return domain.ErrConnectionNotFound
	}
	delete(r.conns, id)
	return nil
}

func (r *ConnectionRegistry) MembersOf(ctx context.Context, room domain.RoomID) ([]*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []*domain.Connection
	for _, conn := range r.conns {
		if conn.Room == room {
			copied := *conn
			members = append(members, &copied)
		}
	}
	return members, nil
}
