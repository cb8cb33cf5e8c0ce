package memory

import (
	"context"
	"testing"
	"time"

	"courtstream/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCaptureStore_PutAndFiles(t *testing.T) {
	store := NewCaptureStore(time.Hour, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", "camA", "/data/a1.mp4"))
	require.NoError(t, store.Put(ctx, "sess-1", "camB", "/data/b1.mp4"))
	// Re-upload overwrites the previous path for the same camera
	require.NoError(t, store.Put(ctx, "sess-1", "camA", "/data/a2.mp4"))

	files, err := store.Files(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.CamID]string{
		"camA": "/data/a2.mp4",
		"camB": "/data/b1.mp4",
	}, files)

	// Files returns a copy; mutating it must not leak into the store
	files["camC"] = "/data/injected.mp4"
	again, err := store.Files(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestCaptureStore_UnknownSession(t *testing.T) {
	store := NewCaptureStore(time.Hour, zaptest.NewLogger(t).Sugar())

	_, err := store.Files(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCaptureStore_JanitorEvictsStaleSessions(t *testing.T) {
	store := NewCaptureStore(20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Put(ctx, "stale", "camA", "/data/a.mp4"))
	store.StartJanitor(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := store.Files(ctx, "stale")
		return err == domain.ErrSessionNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestCaptureStore_UploadRefreshesRetention(t *testing.T) {
	store := NewCaptureStore(100*time.Millisecond, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "busy", "camA", "/data/a.mp4"))
	time.Sleep(60 * time.Millisecond)
	// Fresh upload pushes LastSeen forward past the first deadline
	require.NoError(t, store.Put(ctx, "busy", "camB", "/data/b.mp4"))
	time.Sleep(60 * time.Millisecond)

	store.sweep()

	files, err := store.Files(ctx, "busy")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
