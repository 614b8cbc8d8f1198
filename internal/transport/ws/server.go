package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pairline/signal-service/internal/domain"
	"github.com/pairline/signal-service/internal/service"
	"github.com/pairline/signal-service/internal/store"
)

type Server struct {
	upgrader   websocket.Upgrader
	hub        *Hub
	registry   *store.ConnectionRegistry
	matchmaker *service.Matchmaker
	relay      *service.RelayRouter
	reconciler *service.DisconnectReconciler

	pingEvery time.Duration
	maxBytes  int64
}

func NewServer(
	hub *Hub,
	registry *store.ConnectionRegistry,
	matchmaker *service.Matchmaker,
	relay *service.RelayRouter,
	reconciler *service.DisconnectReconciler,
	pingEvery time.Duration,
	maxBytes int64,
) *Server {
	return &Server{
		hub:        hub,
		registry:   registry,
		matchmaker: matchmaker,
		relay:      relay,
		reconciler: reconciler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
		maxBytes:  maxBytes,
	}
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	connID := s.registry.Register()
	c := newWSConn(conn)
	s.hub.Add(connID, c)
	slog.Info("connected", "conn", connID, "remote", conn.RemoteAddr())

	go s.writeLoop(c)
	s.readLoop(connID, c)

	s.hub.Remove(connID)
	s.reconciler.OnDisconnect(connID)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", connID, "err", err)
	}
}

// readLoop is the connection's single reader. A malformed or unknown message
// is skipped; only a transport error ends the loop.
func (s *Server) readLoop(connID string, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.maxBytes)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read failed", "conn", connID, "err", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.dispatch(connID, msg)
	}
}

func (s *Server) dispatch(connID string, msg Message) {
	switch msg.Type {
	case domain.EventJoin:
		var p JoinPayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		if err := s.matchmaker.Join(connID, p.DisplayName); err != nil {
			slog.Warn("join rejected", "conn", connID, "err", err)
		}

	case domain.EventNegotiationOffer:
		var p SDPPayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		s.doRelay(domain.RelayOffer, connID, p.RoomID, p.SDP)

	case domain.EventNegotiationAnswer:
		var p SDPPayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		s.doRelay(domain.RelayAnswer, connID, p.RoomID, p.SDP)

	case domain.EventICECandidate:
		var p CandidatePayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		s.doRelay(domain.RelayCandidate, connID, p.RoomID, p.Candidate)

	case domain.EventChatMessage:
		var p ChatPayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		s.doRelay(domain.RelayChat, connID, p.RoomID, p.Text)

	default:
		// ignore
	}
}

// doRelay drops undeliverable messages silently: a stale room id is routine
// right after a peer leaves, not a client error worth surfacing.
func (s *Server) doRelay(kind domain.RelayKind, connID, roomID string, payload json.RawMessage) {
	err := s.relay.Relay(kind, connID, roomID, payload)
	if errors.Is(err, domain.ErrUnknownRoom) || errors.Is(err, domain.ErrNotInRoom) {
		slog.Debug("relay dropped", "kind", kind, "conn", connID, "room", roomID, "err", err)
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("empty payload")
	}

	return json.Unmarshal(raw, dst)
}
