package relay

import (
	"log"
	"sync"
	"time"

	"chatwire/pkg/chat"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is one live websocket connection. A user with several tabs holds
// several clients, each with its own id and room set.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	// Buffered channel of outbound frames.
	send chan []byte

	userID   string
	username string

	// ready flips once the connection has issued its setup event.
	ready bool

	// Rooms this connection has joined. Mirrors the hub's view so the
	// handler can validate sends without walking the hub.
	rooms map[string]bool
	mu    sync.RWMutex

	connectedAt time.Time
	lastSeen    time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		id:          uuid.NewString(),
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, 256),
		userID:      userID,
		username:    username,
		rooms:       make(map[string]bool),
		connectedAt: time.Now(),
		lastSeen:    time.Now(),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) Username() string {
	return c.username
}

// Rooms returns a copy of the joined room ids.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

func (c *Client) InRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[roomID]
}

func (c *Client) rememberRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = true
}

func (c *Client) forgetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

func (c *Client) markReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
}

func (c *Client) isReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// SendEvent encodes an event and queues it for delivery. A full queue is
// treated as a dead peer.
func (c *Client) SendEvent(ev chat.Event) error {
	frame, err := ev.Encode()
	if err != nil {
		return err
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.conn.Close()
		return websocket.ErrCloseSent
	}
}

// ReadPump pumps frames from the websocket connection into the handler.
// It runs in its own goroutine per connection and owns all reads.
func (c *Client) ReadPump(handler *EventHandler) {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("relay: read error for %s: %v", c.id, err)
			}
			return
		}
		c.mu.Lock()
		c.lastSeen = time.Now()
		c.mu.Unlock()

		handler.HandleFrame(c, frame)
	}
}

// WritePump drains the send queue to the websocket connection and keeps the
// connection alive with pings. It owns all writes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
