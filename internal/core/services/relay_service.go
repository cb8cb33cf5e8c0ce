package services

import (
	"context"
	"encoding/json"
	"time"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
	apperrors "courtstream/pkg/errors"
	"courtstream/pkg/tracing"

	"go.uber.org/zap"
)

// Server-to-client event names.
const (
	EventJoinSuccess      = "join-success"
	EventJoinError        = "join-error"
	EventExistingPeers    = "existing-peers"
	EventPeerJoined       = "peer-joined"
	EventPeerLeft         = "peer-left"
	EventCameraLeft       = "camera-left"
	EventViewerCount      = "viewer-count"
	EventViewerReady      = "viewer-ready"
	EventDiscoveryRequest = "discovery-request"
	EventSignal           = "signal"
	EventControl          = "control"
	EventChatMessage      = "chat-message"
	EventReaction         = "reaction"
	EventRenderProgress   = "render-progress"
	EventStartISO         = "start-iso"
	EventStopISO          = "stop-iso"
	EventUploadComplete   = "iso-upload-complete"
	EventUploadProgress   = "iso-upload-progress"
)

// RelayService implements peer discovery and signaling relay on top of the
// connection registry. All deliveries are fire-and-forget: a failed or
// missing target is dropped silently and never surfaced to the sender.
type RelayService struct {
	registry ports.ConnectionRegistry
	access   *AccessService
	presence *PresenceService
	sender   ports.PeerSender
	metrics  ports.MetricsCollector
	logger   *zap.SugaredLogger
}

func NewRelayService(
	registry ports.ConnectionRegistry,
	access *AccessService,
	presence *PresenceService,
	sender ports.PeerSender,
	metrics ports.MetricsCollector,
	logger *zap.SugaredLogger,
) *RelayService {
	return &RelayService{
		registry: registry,
		access:   access,
		presence: presence,
		sender:   sender,
		metrics:  metrics,
		logger:   logger,
	}
}

// Join admits or denies a connection into a room. On admission the joiner
// receives the current roster and the room learns about the newcomer; on
// denial only the joiner is told why.
func (s *RelayService) Join(ctx context.Context, id domain.ConnectionID, room domain.RoomID, role domain.Role, passcode string, clientID domain.ClientID) error {
	if err := s.access.Authorize(ctx, room, role, passcode); err != nil {
		s.send(id, EventJoinError, map[string]string{"reason": reasonFor(err)})
		return err
	}

	conn := &domain.Connection{
		ID:       id,
		Room:     room,
		Role:     role,
		ClientID: clientID,
		JoinedAt: time.Now(),
	}
	if err := s.registry.Record(ctx, conn); err != nil {
		return err
	}

	roster := s.roster(ctx, room, id)
	s.send(id, EventJoinSuccess, map[string]string{"room": string(room)})
	s.send(id, EventExistingPeers, roster)
	s.broadcastExcept(ctx, room, id, EventPeerJoined, domain.PeerInfo{
		ID:       id,
		Role:     role,
		ClientID: clientID,
	})

	switch {
	case role == domain.RoleViewer:
		n := s.presence.Increment(room)
		s.Broadcast(ctx, room, EventViewerCount, map[string]int{"n": n})
		s.broadcastExcept(ctx, room, id, EventViewerReady, map[string]string{"id": string(id)})
	case role == domain.RoleDirector:
		// A reconnecting director lost its roster; ask cameras to
		// re-announce themselves.
		s.broadcastExcept(ctx, room, id, EventDiscoveryRequest, struct{}{})
	}

	s.logger.Infow("peer joined room",
		"connection_id", id,
		"room", room,
		"role", role,
		"peers", len(roster),
	)
	return nil
}

// Disconnect removes the connection and tells the room it left.
func (s *RelayService) Disconnect(ctx context.Context, id domain.ConnectionID) {
	conn, err := s.registry.Lookup(ctx, id)
	if err != nil {
		// Never joined a room; nothing to announce.
		return
	}

	if err := s.registry.Remove(ctx, id); err != nil {
		s.logger.Warnw("failed to remove connection", "connection_id", id, "error", err)
	}

	if conn.Role == domain.RoleViewer {
		n := s.presence.Decrement(conn.Room)
		s.Broadcast(ctx, conn.Room, EventViewerCount, map[string]int{"n": n})
	}

	left := map[string]string{"id": string(id)}
	s.Broadcast(ctx, conn.Room, EventCameraLeft, left)
	s.Broadcast(ctx, conn.Room, EventPeerLeft, left)

	s.logger.Infow("peer left room", "connection_id", id, "room", conn.Room, "role", conn.Role)
}

// Forward relays an opaque signaling or control payload point-to-point.
// The payload is never inspected; unknown targets are dropped.
func (s *RelayService) Forward(ctx context.Context, from, to domain.ConnectionID, event string, data json.RawMessage) {
	if to == "" || len(data) == 0 {
		return
	}
	if _, err := s.registry.Lookup(ctx, to); err != nil {
		s.logger.Debugw("dropping relay to unknown target", "from", from, "to", to, "event", event)
		return
	}
	_, span := tracing.TraceSignal(ctx, event, string(from))
	defer span.End()
	if s.metrics != nil {
		s.metrics.RecordRelayMessage(event)
	}
	s.send(to, event, map[string]interface{}{
		"from": from,
		"data": data,
	})
}

// ViewerReady rebroadcasts a viewer's readiness to the rest of the room so
// directors know a consumer is waiting for a feed.
func (s *RelayService) ViewerReady(ctx context.Context, from domain.ConnectionID, room domain.RoomID) {
	s.broadcastExcept(ctx, room, from, EventViewerReady, map[string]string{"id": string(from)})
}

// Chat broadcasts an ephemeral chat message to every room member.
func (s *RelayService) Chat(ctx context.Context, room domain.RoomID, name, text string) {
	s.Broadcast(ctx, room, EventChatMessage, map[string]interface{}{
		"name": name,
		"text": text,
		"time": time.Now().UnixMilli(),
	})
}

// Reaction broadcasts an ephemeral reaction to every room member.
func (s *RelayService) Reaction(ctx context.Context, room domain.RoomID, kind string) {
	s.Broadcast(ctx, room, EventReaction, map[string]string{"type": kind})
}

// StartISO tells the room's cameras to begin isolated capture.
func (s *RelayService) StartISO(ctx context.Context, from domain.ConnectionID, room domain.RoomID, session domain.SessionID) {
	s.broadcastExcept(ctx, room, from, EventStartISO, map[string]string{"sessionId": string(session)})
}

// StopISO tells the room's cameras to stop capture. Options are forwarded
// verbatim.
func (s *RelayService) StopISO(ctx context.Context, from domain.ConnectionID, room domain.RoomID, options json.RawMessage) {
	payload := options
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	s.broadcastExcept(ctx, room, from, EventStopISO, payload)
}

// UploadComplete announces that a camera finished uploading its capture.
func (s *RelayService) UploadComplete(ctx context.Context, from domain.ConnectionID, room domain.RoomID, filename string) {
	s.broadcastExcept(ctx, room, from, EventUploadComplete, map[string]string{
		"filename": filename,
		"from":     string(from),
	})
}

// UploadProgress relays a camera's upload progress to the room.
func (s *RelayService) UploadProgress(ctx context.Context, from domain.ConnectionID, room domain.RoomID, progress float64) {
	s.broadcastExcept(ctx, room, from, EventUploadProgress, map[string]interface{}{
		"from":     string(from),
		"progress": progress,
	})
}

// NotifyRoom implements ports.RoomNotifier for components, like the render
// pipeline, that push room-scoped events without being a room member.
func (s *RelayService) NotifyRoom(ctx context.Context, room domain.RoomID, event string, payload interface{}) {
	s.Broadcast(ctx, room, event, payload)
}

// Broadcast sends an event to every current member of a room.
func (s *RelayService) Broadcast(ctx context.Context, room domain.RoomID, event string, payload interface{}) {
	s.broadcastExcept(ctx, room, "", event, payload)
}

func (s *RelayService) broadcastExcept(ctx context.Context, room domain.RoomID, except domain.ConnectionID, event string, payload interface{}) {
	members, err := s.registry.MembersOf(ctx, room)
	if err != nil {
		s.logger.Warnw("failed to enumerate room members", "room", room, "error", err)
		return
	}
	for _, member := range members {
		if member.ID == except {
			continue
		}
		s.send(member.ID, event, payload)
	}
}

func (s *RelayService) send(id domain.ConnectionID, event string, payload interface{}) {
	if err := s.sender.Send(id, event, payload); err != nil {
		s.logger.Debugw("dropping undeliverable event", "connection_id", id, "event", event, "error", err)
	}
}

func (s *RelayService) roster(ctx context.Context, room domain.RoomID, except domain.ConnectionID) []domain.PeerInfo {
	members, err := s.registry.MembersOf(ctx, room)
	if err != nil {
		return []domain.PeerInfo{}
	}
	roster := make([]domain.PeerInfo, 0, len(members))
	for _, member := range members {
		if member.ID == except {
			continue
		}
		roster = append(roster, domain.PeerInfo{
			ID:       member.ID,
			Role:     member.Role,
			ClientID: member.ClientID,
		})
	}
	return roster
}

func reasonFor(err error) string {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.Message
	}
	return err.Error()
}
