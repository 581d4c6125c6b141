package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"muzmates/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Outbound message types.
const (
	MessageListings       = "listings"
	MessageProfile        = "profile"
	MessageSession        = "session"
	MessageDraft          = "draft"
	MessageUploadProgress = "upload_progress"
	MessageError          = "error"
)

// Inbound message types.
const (
	MessageAuth    = "auth"
	MessageSignOut = "signout"
	MessagePing    = "ping"
	MessagePong    = "pong"
)

type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// UploadProgress is the payload of an upload_progress message.
type UploadProgress struct {
	Target   string  `json:"target"`
	Progress float64 `json:"progress"`
}

type InboundMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// Client represents one websocket connection. A client may be anonymous; UserID is set
// once its session signs in.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.RWMutex
	userID string
	closed bool
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) SetUserID(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// trySend queues a frame without blocking. It reports false when the client is closed
// or its buffer is full.
func (c *Client) trySend(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager manages all active WebSocket connections
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Start runs the manager's main loop in a goroutine. Only this loop mutates the client map.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ID] = client
				m.mutex.Unlock()
				logger.Debug("Client registered: %s", client.ID)

			case client := <-m.Unregister:
				m.remove(client)
				logger.Debug("Client unregistered: %s", client.ID)

			case frame := <-m.broadcast:
				for _, client := range m.snapshot() {
					if !client.trySend(frame) {
						logger.Warn("Dropping slow client %s", client.ID)
						m.remove(client)
					}
				}

			case <-ctx.Done():
				for _, client := range m.snapshot() {
					m.remove(client)
				}
				return
			}
		}
	}()
}

// Add registers a client. After shutdown the client is closed instead.
func (m *Manager) Add(client *Client) {
	select {
	case m.Register <- client:
	case <-m.done:
		client.close()
	}
}

func (m *Manager) Remove(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	if current, ok := m.clients[client.ID]; ok && current == client {
		delete(m.clients, client.ID)
	}
	m.mutex.Unlock()
	client.close()
}

func (m *Manager) snapshot() []*Client {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	return clients
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Broadcast sends a message to every connected client.
func (m *Manager) Broadcast(msgType string, data interface{}) {
	frame, err := encode(msgType, data)
	if err != nil {
		logger.Error("Failed to encode %s broadcast: %v", msgType, err)
		return
	}
	select {
	case m.broadcast <- frame:
	case <-m.done:
	}
}

// SendToUser sends a message to every connection signed in as userID.
func (m *Manager) SendToUser(userID string, msgType string, data interface{}) int {
	if userID == "" {
		return 0
	}
	frame, err := encode(msgType, data)
	if err != nil {
		logger.Error("Failed to encode %s message: %v", msgType, err)
		return 0
	}

	sent := 0
	for _, client := range m.snapshot() {
		if client.UserID() == userID && client.trySend(frame) {
			sent++
		}
	}
	return sent
}

func (m *Manager) SendToClient(client *Client, msgType string, data interface{}) bool {
	frame, err := encode(msgType, data)
	if err != nil {
		logger.Error("Failed to encode %s message: %v", msgType, err)
		return false
	}
	return client.trySend(frame)
}

func encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// ReadPump reads messages from the WebSocket connection until it closes.
func (c *Client) ReadPump(m *Manager, onMessage func(*Client, InboundMessage)) {
	defer func() {
		m.Remove(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Websocket read error for %s: %v", c.ID, err)
			}
			return
		}

		if msg.Type == MessagePing {
			m.SendToClient(c, MessagePong, nil)
			continue
		}
		onMessage(c, msg)
	}
}

// WritePump sends queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Warn("Websocket write error for %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
