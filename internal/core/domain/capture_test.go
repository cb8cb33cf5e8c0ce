package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEDL_CamsDistinctInOrder(t *testing.T) {
	edl := EDL{
		{T: 0, Cam: "camB"},
		{T: 1000, Cam: "camA"},
		{T: 2000, Cam: "camB"},
		{T: 3000, Cam: "camC"},
		{T: 4000, Cam: "camA"},
	}
	assert.Equal(t, []CamID{"camB", "camA", "camC"}, edl.Cams())
	assert.Nil(t, EDL{}.Cams())
}

func TestRole_CameraClass(t *testing.T) {
	assert.True(t, RoleCamera.CameraClass())
	assert.True(t, RoleUnset.CameraClass())
	assert.True(t, Role("operator").CameraClass())
	assert.False(t, RoleViewer.CameraClass())
	assert.False(t, RoleDirector.CameraClass())
}

func TestRoomAccessConfig_ModeFor(t *testing.T) {
	cfg := &RoomAccessConfig{
		CameraAccess: AccessProtected,
	}
	assert.Equal(t, AccessProtected, cfg.ModeFor(RoleCamera))
	assert.Equal(t, AccessProtected, cfg.ModeFor(RoleUnset))
	// Unset viewer side defaults to public
	assert.Equal(t, AccessPublic, cfg.ModeFor(RoleViewer))
}
