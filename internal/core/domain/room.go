package domain

type AccessMode string

const (
	AccessPublic    AccessMode = "public"
	AccessProtected AccessMode = "protected"
)

// RoomAccessConfig is the per-room access policy. It is owned by the
// stream-management collaborator; the core only reads it.
type RoomAccessConfig struct {
	Room         RoomID     `json:"room"`
	CameraAccess AccessMode `json:"camera_access"`
	ViewerAccess AccessMode `json:"viewer_access"`
	Passcode     string     `json:"passcode"`
	OwnerID      string     `json:"owner_id,omitempty"`
}

// ModeFor returns the access mode the given role is checked against.
// Director is exempt from passcode checks entirely, so the answer only
// matters for viewer and camera-class roles. An unset mode means public.
func (c *RoomAccessConfig) ModeFor(role Role) AccessMode {
	mode := c.CameraAccess
	if role == RoleViewer {
		mode = c.ViewerAccess
	}
	if mode == "" {
		return AccessPublic
	}
	return mode
}
