package services

import (
	"context"
	"testing"

	"courtstream/internal/core/domain"
	"courtstream/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAccessService_Authorize(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	configs := memory.NewRoomConfigStore()
	require.NoError(t, configs.Set(context.Background(), &domain.RoomAccessConfig{
		Room:         "courtroom-a",
		CameraAccess: domain.AccessProtected,
		ViewerAccess: domain.AccessPublic,
		Passcode:     "tipstaff",
	}))
	require.NoError(t, configs.Set(context.Background(), &domain.RoomAccessConfig{
		Room:         "courtroom-b",
		CameraAccess: domain.AccessProtected,
		ViewerAccess: domain.AccessProtected,
		Passcode:     "gavel",
	}))

	service := NewAccessService(configs, logger)

	tests := []struct {
		name     string
		room     domain.RoomID
		role     domain.Role
		passcode string
		wantErr  bool
	}{
		{
			name: "unknown room denied",
			room: "no-such-room",
			role: domain.RoleViewer,
			// Even the right passcode cannot admit into a room without config
			passcode: "tipstaff",
			wantErr:  true,
		},
		{
			name:     "director bypasses protected camera access",
			room:     "courtroom-a",
			role:     domain.RoleDirector,
			passcode: "",
			wantErr:  false,
		},
		{
			name:     "camera with correct passcode",
			room:     "courtroom-a",
			role:     domain.RoleCamera,
			passcode: "tipstaff",
			wantErr:  false,
		},
		{
			name:     "camera with wrong passcode",
			room:     "courtroom-a",
			role:     domain.RoleCamera,
			passcode: "wrong",
			wantErr:  true,
		},
		{
			name:     "unset role checked as camera",
			room:     "courtroom-a",
			role:     domain.RoleUnset,
			passcode: "wrong",
			wantErr:  true,
		},
		{
			name:     "viewer admitted to public side without passcode",
			room:     "courtroom-a",
			role:     domain.RoleViewer,
			passcode: "",
			wantErr:  false,
		},
		{
			name:     "viewer denied on protected side",
			room:     "courtroom-b",
			role:     domain.RoleViewer,
			passcode: "",
			wantErr:  true,
		},
		{
			name:     "viewer admitted to protected side with passcode",
			room:     "courtroom-b",
			role:     domain.RoleViewer,
			passcode: "gavel",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Authorize(context.Background(), tt.room, tt.role, tt.passcode)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessService_UnsetModeIsPublic(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	configs := memory.NewRoomConfigStore()
	require.NoError(t, configs.Set(context.Background(), &domain.RoomAccessConfig{
		Room:     "open-room",
		Passcode: "unused",
	}))

	service := NewAccessService(configs, logger)

	assert.NoError(t, service.Authorize(context.Background(), "open-room", domain.RoleCamera, ""))
	assert.NoError(t, service.Authorize(context.Background(), "open-room", domain.RoleViewer, ""))
}
