package ports

import (
	"context"

	"courtstream/internal/core/domain"
)

// PeerSender delivers a single event to one live connection. Implemented by
// the websocket transport; delivery is best-effort and an error simply means
// the connection is gone.
type PeerSender interface {
	Send(id domain.ConnectionID, event string, payload interface{}) error
}

// RoomNotifier pushes an event to every current member of a room. Used by
// the render pipeline for progress and by the relay for ephemerals.
type RoomNotifier interface {
	NotifyRoom(ctx context.Context, room domain.RoomID, event string, payload interface{})
}

// SegmentJob describes one EDL window to cut from a source capture.
// DurationSeconds is ignored when ToEnd is set.
type SegmentJob struct {
	Source          string
	Output          string
	StartSeconds    float64
	DurationSeconds float64
	ToEnd           bool
}

// Encoder is the external encoder process boundary. Each call blocks until
// the encoder exits and honors context cancellation and deadlines.
type Encoder interface {
	ExtractSegment(ctx context.Context, job SegmentJob) error
	Concat(ctx context.Context, manifestPath, outputPath string) error
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// MetricsCollector records operational metrics. A no-op implementation is
// fine; callers never branch on it.
type MetricsCollector interface {
	RecordConnection()
	RecordDisconnect()
	SetViewerCount(room domain.RoomID, n int)
	RecordRelayMessage(event string)
	RecordUpload(bytes int64)
	RecordRender(status string, seconds float64)
}
