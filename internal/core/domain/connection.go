package domain

import "time"

type ConnectionID string

type RoomID string

// ClientID is supplied by the browser and survives reconnects, unlike the
// ConnectionID which is minted per transport session.
type ClientID string

type Role string

const (
	RoleDirector Role = "director"
	RoleCamera   Role = "camera"
	RoleViewer   Role = "viewer"

	// RoleUnset is treated as camera-class for access decisions and is
	// never counted as a viewer.
	RoleUnset Role = ""
)

// CameraClass reports whether the role checks camera_access on join.
func (r Role) CameraClass() bool {
	return r != RoleViewer && r != RoleDirector
}

// Connection is the per-transport-session record owned by the connection
// registry. It is constructed once at admission and immutable afterwards;
// only the owning connection's join and disconnect handlers touch its entry.
type Connection struct {
	ID       ConnectionID
	Room     RoomID
	Role     Role
	ClientID ClientID
	JoinedAt time.Time
}

// PeerInfo is the roster entry exchanged during peer discovery.
type PeerInfo struct {
	ID       ConnectionID `json:"id"`
	Role     Role         `json:"role"`
	ClientID ClientID     `json:"clientId,omitempty"`
}
