package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client (inbound) message types
const (
	MsgEnterQueue MessageType = "enter_queue"
	MsgLeaveQueue MessageType = "leave_queue"
	MsgRoundReady MessageType = "round_ready"
	MsgMove       MessageType = "move"
	MsgCastSpell  MessageType = "cast_spell"
	MsgReportHit  MessageType = "report_hit"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for tournament sessions
type Hub struct {
	// Session -> connections
	hostConns   map[string]*Connection
	playerConns map[string]map[string]*Connection // sessionID -> playerID -> conn

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	PlayerID  string // Empty for host connections
	IsHost    bool
	Send      chan []byte
	Hub       *Hub

	done     chan struct{}
	stopOnce sync.Once
}

// stop signals the write pump and all future sends to give up. Send itself is
// never closed, so a late push can never panic.
func (c *Connection) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// push queues data for delivery, dropping it if the connection is gone or its
// buffer is full.
func (c *Connection) push(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	ToHost    bool
	ToPlayer  string // Empty means all players, specific ID means one player
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		hostConns:   make(map[string]*Connection),
		playerConns: make(map[string]map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsHost {
				h.hostConns[conn.SessionID] = conn
				log.Printf("Host connected to session %s", conn.SessionID)
			} else {
				if h.playerConns[conn.SessionID] == nil {
					h.playerConns[conn.SessionID] = make(map[string]*Connection)
				}
				h.playerConns[conn.SessionID][conn.PlayerID] = conn
				log.Printf("Player %s connected to session %s", conn.PlayerID, conn.SessionID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsHost {
				if existing, ok := h.hostConns[conn.SessionID]; ok && existing == conn {
					delete(h.hostConns, conn.SessionID)
					log.Printf("Host disconnected from session %s", conn.SessionID)
				}
			} else {
				if players, ok := h.playerConns[conn.SessionID]; ok {
					if existing, ok := players[conn.PlayerID]; ok && existing == conn {
						delete(players, conn.PlayerID)
						log.Printf("Player %s disconnected from session %s", conn.PlayerID, conn.SessionID)
					}
				}
			}
			conn.stop()
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToHost {
				if conn, ok := h.hostConns[msg.SessionID]; ok {
					conn.push(data)
				}
			} else if msg.ToPlayer != "" {
				if players, ok := h.playerConns[msg.SessionID]; ok {
					if conn, ok := players[msg.ToPlayer]; ok {
						conn.push(data)
					}
				}
			} else {
				// All players plus the host dashboard
				if players, ok := h.playerConns[msg.SessionID]; ok {
					for _, conn := range players {
						conn.push(data)
					}
				}
				if conn, ok := h.hostConns[msg.SessionID]; ok {
					conn.push(data)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToPlayer sends a message to a specific player
func (h *Hub) BroadcastToPlayer(sessionID, playerID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		ToPlayer:  playerID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToSession sends a message to everyone in a session (implements
// arena.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// Channel wraps a connection as an arena.PlayerChannel: an order-preserving,
// push-only outbound channel whose sends fail silently once the connection is
// gone.
type Channel struct {
	conn *Connection
}

func NewChannel(conn *Connection) *Channel {
	return &Channel{conn: conn}
}

func (c *Channel) Send(msgType string, payload interface{}) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: failed to marshal %s payload: %v", msgType, err)
		return false
	}
	data, err := json.Marshal(&Message{Type: MessageType(msgType), Payload: body})
	if err != nil {
		return false
	}
	return c.conn.push(data)
}

func (c *Channel) Connected() bool {
	select {
	case <-c.conn.done:
		return false
	default:
		return true
	}
}
