package client

import (
	"sort"
	"sync"

	"chatwire/pkg/chat"
)

// Emitter is the slice of the connection the trackers need. Satisfied by
// *Conn; tests substitute a recorder.
type Emitter interface {
	Emit(event string, payload any) error
}

// RoomTracker keeps the set of rooms this connection has joined plus the
// active-room pointer. The pointer is scoped to this tracker (one per
// connection, so one per tab), never shared across tabs by user id.
type RoomTracker struct {
	conn Emitter

	mu     sync.Mutex
	joined map[string]bool
	active string
}

func NewRoomTracker(conn Emitter) *RoomTracker {
	return &RoomTracker{
		conn:   conn,
		joined: make(map[string]bool),
	}
}

// Join adds the room and tells the relay. Joining an already-joined room is
// a no-op.
func (r *RoomTracker) Join(roomID string) error {
	if roomID == "" {
		return nil
	}

	r.mu.Lock()
	if r.joined[roomID] {
		r.mu.Unlock()
		return nil
	}
	r.joined[roomID] = true
	r.mu.Unlock()

	return r.conn.Emit(chat.EventJoinChat, chat.RoomPayload{ChatID: roomID})
}

// Leave forgets the room locally and tells the relay so it can prune.
func (r *RoomTracker) Leave(roomID string) error {
	r.mu.Lock()
	if !r.joined[roomID] {
		r.mu.Unlock()
		return nil
	}
	delete(r.joined, roomID)
	if r.active == roomID {
		r.active = ""
	}
	r.mu.Unlock()

	return r.conn.Emit(chat.EventLeaveChat, chat.RoomPayload{ChatID: roomID})
}

// SetActive moves the active-room pointer. Purely local, no network traffic.
func (r *RoomTracker) SetActive(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = roomID
}

func (r *RoomTracker) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *RoomTracker) IsJoined(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joined[roomID]
}

func (r *RoomTracker) Joined() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.joined))
	for roomID := range r.joined {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}

// Rejoin re-emits a join for every joined room. Wired to the connection's
// rejoin hook: the relay forgets membership across a dropped connection.
func (r *RoomTracker) Rejoin() {
	for _, roomID := range r.Joined() {
		if err := r.conn.Emit(chat.EventJoinChat, chat.RoomPayload{ChatID: roomID}); err != nil {
			return
		}
	}
}
