package memory

import (
	"context"
	"testing"

	"courtstream/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomConfigStore_SetAndGet(t *testing.T) {
	store := NewRoomConfigStore()
	ctx := context.Background()

	cfg := &domain.RoomAccessConfig{
		Room:         "courtroom",
		CameraAccess: domain.AccessProtected,
		ViewerAccess: domain.AccessPublic,
		Passcode:     "gavel",
	}
	require.NoError(t, store.Set(ctx, cfg))

	got, err := store.Get(ctx, "courtroom")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	// The store keeps its own copy
	cfg.Passcode = "changed"
	again, err := store.Get(ctx, "courtroom")
	require.NoError(t, err)
	assert.Equal(t, "gavel", again.Passcode)
}

func TestRoomConfigStore_UnknownRoom(t *testing.T) {
	store := NewRoomConfigStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}
