package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
	"courtstream/internal/core/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the wire envelope in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Room     string `json:"room"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
	ClientID string `json:"clientId,omitempty"`
}

type ForwardPayload struct {
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type ChatPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type ReactionPayload struct {
	Room string `json:"room"`
	Type string `json:"type"`
}

type StartISOPayload struct {
	Room      string `json:"room"`
	SessionID string `json:"sessionId"`
}

type StopISOPayload struct {
	Room    string          `json:"room"`
	Options json.RawMessage `json:"options,omitempty"`
}

type UploadCompletePayload struct {
	Room     string `json:"room"`
	Filename string `json:"filename"`
}

type UploadProgressPayload struct {
	Room     string  `json:"room"`
	Progress float64 `json:"progress"`
}

// client wraps one websocket connection. The write mutex keeps concurrent
// relay deliveries from interleaving frames; ordering within a single
// sender-to-receiver stream is preserved by the per-client lock.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(timeout time.Duration, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(v)
}

// Server terminates websocket connections and feeds parsed events into the
// relay service. It implements ports.PeerSender for outbound delivery.
type Server struct {
	relay *services.RelayService

	clients map[domain.ConnectionID]*client
	mu      sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
	maxMsgSize   int64

	metrics ports.MetricsCollector
	logger  *zap.SugaredLogger
}

type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

func NewServer(metrics ports.MetricsCollector, opts Options, logger *zap.SugaredLogger) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Server{
		clients:      make(map[domain.ConnectionID]*client),
		pingInterval: opts.PingInterval,
		pongTimeout:  opts.PongTimeout,
		writeTimeout: opts.WriteTimeout,
		maxMsgSize:   opts.MaxMessageSize,
		metrics:      metrics,
		logger:       logger,
	}
}

// SetRelay wires the relay service in after construction; the relay needs
// the server as its sender, so the two are built in stages.
func (s *Server) SetRelay(relay *services.RelayService) {
	s.relay = relay
}

// Send implements ports.PeerSender. Unknown connections are an error the
// relay swallows; delivery is best-effort by contract.
func (s *Server) Send(id domain.ConnectionID, event string, payload interface{}) error {
	s.mu.RLock()
	cl, exists := s.clients[id]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("connection %s not connected", id)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return cl.writeJSON(s.writeTimeout, Message{Type: event, Payload: data})
}

func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := domain.ConnectionID(uuid.NewString())

	s.mu.Lock()
	s.clients[connID] = &client{conn: conn}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordConnection()
	}
	s.logger.Infow("socket connected", "connection_id", connID, "remote", r.RemoteAddr)

	if s.maxMsgSize > 0 {
		conn.SetReadLimit(s.maxMsgSize)
	}
	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan Message, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
			messageChan <- msg
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if err := s.handleMessage(r.Context(), connID, msg); err != nil {
				s.logger.Infow("error handling message", "connection_id", connID, "type", msg.Type, "error", err)
			}

		case <-pingTicker.C:
			s.mu.RLock()
			cl := s.clients[connID]
			s.mu.RUnlock()
			cl.mu.Lock()
			cl.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			err := cl.conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()
			if err != nil {
				s.logger.Infow("error sending ping", "connection_id", connID, "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading message", "connection_id", connID, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	s.mu.Lock()
	delete(s.clients, connID)
	s.mu.Unlock()

	s.relay.Disconnect(context.Background(), connID)
	if s.metrics != nil {
		s.metrics.RecordDisconnect()
	}
	s.logger.Infow("socket disconnected", "connection_id", connID)
}

func (s *Server) handleMessage(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	if msg.Type == "" {
		return fmt.Errorf("message type is required")
	}

	switch msg.Type {
	case "join":
		return s.handleJoin(ctx, connID, msg)
	case services.EventSignal, services.EventControl:
		return s.handleForward(ctx, connID, msg)
	case services.EventViewerReady:
		return s.handleViewerReady(ctx, connID, msg)
	case services.EventChatMessage:
		return s.handleChat(ctx, connID, msg)
	case services.EventReaction:
		return s.handleReaction(ctx, connID, msg)
	case services.EventStartISO:
		return s.handleStartISO(ctx, connID, msg)
	case services.EventStopISO:
		return s.handleStopISO(ctx, connID, msg)
	case services.EventUploadComplete:
		return s.handleUploadComplete(ctx, connID, msg)
	case services.EventUploadProgress:
		return s.handleUploadProgress(ctx, connID, msg)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (s *Server) handleJoin(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid join payload: %w", err)
	}
	if payload.Room == "" {
		return fmt.Errorf("room is required")
	}

	// A denied join is the relay's answer to the client, not a transport
	// error; it is logged and swallowed here.
	if err := s.relay.Join(ctx, connID,
		domain.RoomID(payload.Room),
		domain.Role(payload.Role),
		payload.Password,
		domain.ClientID(payload.ClientID),
	); err != nil {
		s.logger.Infow("join rejected", "connection_id", connID, "room", payload.Room, "error", err)
	}
	return nil
}

func (s *Server) handleForward(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload ForwardPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	s.relay.Forward(ctx, connID, domain.ConnectionID(payload.To), msg.Type, payload.Data)
	return nil
}

func (s *Server) handleViewerReady(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload RoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid viewer-ready payload: %w", err)
	}
	if payload.Room == "" {
		return nil
	}
	s.relay.ViewerReady(ctx, connID, domain.RoomID(payload.Room))
	return nil
}

func (s *Server) handleChat(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload ChatPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid chat payload: %w", err)
	}
	s.relay.Chat(ctx, domain.RoomID(payload.Room), payload.Name, payload.Text)
	return nil
}

func (s *Server) handleReaction(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload ReactionPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid reaction payload: %w", err)
	}
	s.relay.Reaction(ctx, domain.RoomID(payload.Room), payload.Type)
	return nil
}

func (s *Server) handleStartISO(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload StartISOPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid start-iso payload: %w", err)
	}
	s.relay.StartISO(ctx, connID, domain.RoomID(payload.Room), domain.SessionID(payload.SessionID))
	return nil
}

func (s *Server) handleStopISO(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload StopISOPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid stop-iso payload: %w", err)
	}
	s.relay.StopISO(ctx, connID, domain.RoomID(payload.Room), payload.Options)
	return nil
}

func (s *Server) handleUploadComplete(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload UploadCompletePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid iso-upload-complete payload: %w", err)
	}
	s.relay.UploadComplete(ctx, connID, domain.RoomID(payload.Room), payload.Filename)
	return nil
}

func (s *Server) handleUploadProgress(ctx context.Context, connID domain.ConnectionID, msg Message) error {
	var payload UploadProgressPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("invalid iso-upload-progress payload: %w", err)
	}
	s.relay.UploadProgress(ctx, connID, domain.RoomID(payload.Room), payload.Progress)
	return nil
}

// ConnectionCount reports the number of live sockets.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
