package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatwire/pkg/chat"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

type recordedEvent struct {
	event   string
	payload any
}

func (r *recordingEmitter) Emit(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event: event, payload: payload})
	return r.err
}

func (r *recordingEmitter) recorded() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func (r *recordingEmitter) count(event string) int {
	n := 0
	for _, e := range r.recorded() {
		if e.event == event {
			n++
		}
	}
	return n
}

func TestRoomTracker_Join(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	assert.NoError(t, rooms.Join("room1"))

	assert.True(t, rooms.IsJoined("room1"))
	events := emitter.recorded()
	assert.Len(t, events, 1)
	assert.Equal(t, chat.EventJoinChat, events[0].event)
	assert.Equal(t, chat.RoomPayload{ChatID: "room1"}, events[0].payload)
}

func TestRoomTracker_Join_Idempotent(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	assert.NoError(t, rooms.Join("room1"))
	assert.NoError(t, rooms.Join("room1"))
	assert.NoError(t, rooms.Join("room1"))

	assert.Equal(t, 1, emitter.count(chat.EventJoinChat), "repeat joins must not hit the wire")
	assert.Equal(t, []string{"room1"}, rooms.Joined())
}

func TestRoomTracker_Join_EmptyID(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	assert.NoError(t, rooms.Join(""))
	assert.Empty(t, emitter.recorded())
}

func TestRoomTracker_Leave(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	rooms.Join("room1")
	rooms.SetActive("room1")
	assert.NoError(t, rooms.Leave("room1"))

	assert.False(t, rooms.IsJoined("room1"))
	assert.Equal(t, "", rooms.Active(), "leaving the active room clears the pointer")
	assert.Equal(t, 1, emitter.count(chat.EventLeaveChat))
}

func TestRoomTracker_Leave_NotJoined(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	assert.NoError(t, rooms.Leave("room1"))
	assert.Empty(t, emitter.recorded())
}

func TestRoomTracker_Leave_OtherRoomKeepsActive(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	rooms.Join("room1")
	rooms.Join("room2")
	rooms.SetActive("room1")
	rooms.Leave("room2")

	assert.Equal(t, "room1", rooms.Active())
}

func TestRoomTracker_SetActive_IsLocal(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)
	rooms.Join("room1")
	before := len(emitter.recorded())

	rooms.SetActive("room1")
	rooms.SetActive("")

	assert.Len(t, emitter.recorded(), before, "moving the active pointer must not emit")
}

func TestRoomTracker_Rejoin(t *testing.T) {
	emitter := &recordingEmitter{}
	rooms := NewRoomTracker(emitter)

	rooms.Join("room2")
	rooms.Join("room1")
	rooms.Join("room3")
	rooms.Leave("room3")

	rooms.Rejoin()

	var rejoined []string
	for _, e := range emitter.recorded()[4:] {
		assert.Equal(t, chat.EventJoinChat, e.event)
		rejoined = append(rejoined, e.payload.(chat.RoomPayload).ChatID)
	}
	assert.Equal(t, []string{"room1", "room2"}, rejoined)
	assert.True(t, rooms.IsJoined("room1"))
	assert.True(t, rooms.IsJoined("room2"))
}
