package ports

import (
	"context"

	"courtstream/internal/core/domain"
)

// ConnectionRegistry is the authoritative map of live connections. Absent
// lookups are an expected outcome and surface as domain.ErrConnectionNotFound.
type ConnectionRegistry interface {
	Record(ctx context.Context, conn *domain.Connection) error
	Lookup(ctx context.Context, id domain.ConnectionID) (*domain.Connection, error)
	Remove(ctx context.Context, id domain.ConnectionID) error
	MembersOf(ctx context.Context, room domain.RoomID) ([]*domain.Connection, error)
}

// RoomConfigStore reads per-room access configuration. The configuration is
// owned and written by the stream-management collaborator; Set exists for
// seeding and tests.
type RoomConfigStore interface {
	Get(ctx context.Context, room domain.RoomID) (*domain.RoomAccessConfig, error)
	Set(ctx context.Context, cfg *domain.RoomAccessConfig) error
}

// CaptureStore persists the camera-id to file-path map of ISO recording
// sessions. Upserts are idempotent, last write per (session, cam) wins.
type CaptureStore interface {
	Put(ctx context.Context, session domain.SessionID, cam domain.CamID, path string) error
	Files(ctx context.Context, session domain.SessionID) (map[domain.CamID]string, error)
}
