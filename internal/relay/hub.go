package relay

import (
	"sync"
)

// Hub tracks live connections and room membership. Rooms exist only while
// someone is joined; the durable conversation record lives in the chat store.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]*room
}

// room carries its own lock so fan-out into one room never blocks an
// unrelated room. Enqueueing frames under the room lock also pins the
// observation order of two sends to the relay's processing order.
type room struct {
	mu      sync.Mutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]*room),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// UnregisterClient drops the client from every room it joined and closes its
// send queue. Empty rooms are pruned.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	for id, r := range h.rooms {
		r.mu.Lock()
		delete(r.clients, client)
		empty := len(r.clients) == 0
		r.mu.Unlock()
		if empty {
			delete(h.rooms, id)
		}
	}

	close(client.send)
}

// JoinRoom adds the client to a room, creating it on first join.
// Joining an already-joined room is a no-op.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = &room{clients: make(map[*Client]bool)}
		h.rooms[roomID] = r
	}
	r.mu.Lock()
	r.clients[client] = true
	r.mu.Unlock()
	h.mu.Unlock()

	client.rememberRoom(roomID)
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		client.forgetRoom(roomID)
		return
	}

	r.mu.Lock()
	delete(r.clients, client)
	empty := len(r.clients) == 0
	r.mu.Unlock()

	if empty {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()

	client.forgetRoom(roomID)
}

func (h *Hub) IsInRoom(client *Client, roomID string) bool {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[client]
}

// Broadcast enqueues a frame to every member of the room except exclude.
// A member whose send queue is full is disconnected rather than allowed to
// stall the room.
func (h *Hub) Broadcast(roomID string, frame []byte, exclude *Client) {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for client := range r.clients {
		if client == exclude {
			continue
		}
		select {
		case client.send <- frame:
		default:
			delete(r.clients, client)
			client.conn.Close()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// RoomClients returns a snapshot of the members of a room.
func (h *Hub) RoomClients(roomID string) []*Client {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// GetClientByUserID returns any live connection for the user, or nil. A user
// with several tabs has several clients; which one is returned is unspecified.
func (h *Hub) GetClientByUserID(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.userID == userID {
			return client
		}
	}
	return nil
}
