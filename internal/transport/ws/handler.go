package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quizbrawl/internal/arena"
	"quizbrawl/internal/model"
	"quizbrawl/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024

	actionTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections and routes player actions into the
// matchmaking queue and match engine.
type Handler struct {
	hub        *Hub
	authSvc    *service.AuthService
	matchmaker *arena.Matchmaker
	registry   *arena.Registry
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, matchmaker *arena.Matchmaker, registry *arena.Registry) *Handler {
	return &Handler{
		hub:        hub,
		authSvc:    authSvc,
		matchmaker: matchmaker,
		registry:   registry,
	}
}

// HostWS handles GET /v1/ws/sessions/{id}/host
func (h *Handler) HostWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.authSvc.ValidateHostToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		IsHost:    true,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
		done:      make(chan struct{}),
	}
	h.hub.Register(conn)
	log.Printf("Host %s connected to session %s via WebSocket", claims.HostID, sessionID)

	go h.writePump(wsConn, conn)
	go h.hostReadPump(wsConn, conn)
}

// PlayerWS handles GET /v1/ws/sessions/{id}/player
func (h *Handler) PlayerWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.authSvc.ValidatePlayerToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.SessionID != sessionID {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		PlayerID:  claims.PlayerID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
		done:      make(chan struct{}),
	}
	h.hub.Register(conn)
	log.Printf("Player %s connected to session %s via WebSocket", claims.PlayerID, sessionID)

	go h.writePump(wsConn, conn)
	go h.playerReadPump(wsConn, conn)
}

func (h *Handler) hostReadPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()
	configureRead(wsConn)
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			logUnexpectedClose(err)
			return
		}
		// Host connections are a read-only dashboard feed.
	}
}

func (h *Handler) playerReadPump(wsConn *websocket.Conn, conn *Connection) {
	channel := NewChannel(conn)
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
		h.handleDisconnect(conn)
	}()
	configureRead(wsConn)

	for {
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			logUnexpectedClose(err)
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "malformed message"})
			continue
		}
		h.dispatch(conn, channel, &msg)
	}
}

// dispatch routes one inbound action. Bad input degrades to an error event;
// nothing a client sends may take the engine down.
func (h *Handler) dispatch(conn *Connection, channel *Channel, msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch msg.Type {
	case MsgEnterQueue:
		_, err := h.matchmaker.Enter(ctx, conn.SessionID, conn.PlayerID, channel)
		switch {
		case errors.Is(err, arena.ErrAlreadyQueued):
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "already in queue"})
		case errors.Is(err, arena.ErrNotEligible):
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "not eligible to queue"})
		case err != nil:
			log.Printf("ws: enter queue failed for %s: %v", conn.PlayerID, err)
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "failed to enter queue"})
		}

	case MsgLeaveQueue:
		h.matchmaker.Remove(ctx, conn.SessionID, conn.PlayerID)

	case MsgRoundReady:
		if match, side, ok := h.matchFor(conn); ok {
			match.SetReady(side)
		}

	case MsgMove:
		var payload struct {
			Position model.Position `json:"position"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "malformed move"})
			return
		}
		if match, side, ok := h.matchFor(conn); ok {
			match.Move(side, payload.Position)
		}

	case MsgCastSpell:
		var payload struct {
			Kind      string         `json:"kind"`
			Direction model.Position `json:"direction"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "malformed cast"})
			return
		}
		match, side, ok := h.matchFor(conn)
		if !ok {
			return
		}
		if _, err := match.CastSpell(side, payload.Kind, payload.Direction); err != nil {
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: err.Error()})
		}

	case MsgReportHit:
		var payload struct {
			SpellID string     `json:"spellId"`
			Target  model.Side `json:"target"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.SpellID == "" || !payload.Target.Valid() {
			channel.Send(arena.MsgError, arena.ErrorPayload{Message: "malformed hit report"})
			return
		}
		if match, _, ok := h.matchFor(conn); ok {
			match.ReportHit(payload.SpellID, payload.Target)
		}

	default:
		channel.Send(arena.MsgError, arena.ErrorPayload{Message: "unknown message type"})
	}
}

// matchFor resolves the live match the connection's player is fighting in.
func (h *Handler) matchFor(conn *Connection) (*arena.Match, model.Side, bool) {
	match := h.registry.ForPlayer(conn.PlayerID)
	if match == nil {
		return nil, "", false
	}
	side, ok := match.SideOf(conn.PlayerID)
	if !ok {
		return nil, "", false
	}
	return match, side, true
}

// handleDisconnect turns a dropped socket into a queue withdrawal or a match
// forfeit.
func (h *Handler) handleDisconnect(conn *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	h.matchmaker.Remove(ctx, conn.SessionID, conn.PlayerID)
	if match, side, ok := h.matchFor(conn); ok {
		match.HandleDisconnect(side)
	}
}

func configureRead(wsConn *websocket.Conn) {
	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

func logUnexpectedClose(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		log.Printf("WebSocket error: %v", err)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-conn.done:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			wsConn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
