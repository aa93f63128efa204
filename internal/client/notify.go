package client

import (
	"sync"

	"chatwire/pkg/chat"
)

// TranscriptEntry is one message in a room's visible transcript. Locally
// sent messages start pending and are reconciled: marked sent on a
// successful persistence call, marked failed otherwise. Never silently
// kept as if delivered.
type TranscriptEntry struct {
	Message chat.WireMessage
	Pending bool
	Failed  bool
}

// Notifier routes every inbound message to exactly one place: the active
// room's transcript, or the deduplicated notification queue. A single mutex
// covers the pointer read, the append and the flush, so a flush can never
// miss an entry added concurrently.
type Notifier struct {
	rooms *RoomTracker

	mu          sync.Mutex
	transcripts map[string][]TranscriptEntry
	queue       []chat.WireMessage
	queued      map[string]bool

	// onRefresh, if set, fires after a notification is enqueued so the UI
	// can re-fetch room-list metadata. Called without the lock held.
	onRefresh func()

	// onAppend, if set, fires after an inbound message lands in the active
	// transcript. Called without the lock held.
	onAppend func(roomID string)
}

func NewNotifier(rooms *RoomTracker) *Notifier {
	return &Notifier{
		rooms:       rooms,
		transcripts: make(map[string][]TranscriptEntry),
		queued:      make(map[string]bool),
	}
}

func (n *Notifier) OnRefresh(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onRefresh = fn
}

func (n *Notifier) OnAppend(fn func(roomID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onAppend = fn
}

// HandleInbound classifies one received message: transcript if its chat is
// the active room, notification queue otherwise. Duplicate deliveries of a
// queued message are dropped by id; transcript appends are not deduplicated
// here because the relay never echoes a sender its own message.
func (n *Notifier) HandleInbound(msg chat.WireMessage) {
	n.mu.Lock()

	if msg.ChatID == n.rooms.Active() {
		n.transcripts[msg.ChatID] = append(n.transcripts[msg.ChatID], TranscriptEntry{Message: msg})
		onAppend := n.onAppend
		n.mu.Unlock()
		if onAppend != nil {
			onAppend(msg.ChatID)
		}
		return
	}

	if n.queued[msg.ID] {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, msg)
	n.queued[msg.ID] = true
	onRefresh := n.onRefresh
	n.mu.Unlock()

	if onRefresh != nil {
		onRefresh()
	}
}

// Open makes roomID the active room and flushes exactly its entries from the
// notification queue in one atomic step, returning them in insertion order.
func (n *Notifier) Open(roomID string) []chat.WireMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.rooms.SetActive(roomID)

	var flushed []chat.WireMessage
	remaining := n.queue[:0]
	for _, msg := range n.queue {
		if msg.ChatID == roomID {
			flushed = append(flushed, msg)
			delete(n.queued, msg.ID)
			continue
		}
		remaining = append(remaining, msg)
	}
	n.queue = remaining

	return flushed
}

// OpenWithHistory is Open plus a transcript reset from store history, in the
// same atomic step. Flushed notifications missing from the fetched history
// (delivered after the fetch) are appended so nothing is dropped; ones
// already present are not appended twice.
func (n *Notifier) OpenWithHistory(roomID string, history []chat.WireMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.rooms.SetActive(roomID)

	var flushed []chat.WireMessage
	remaining := n.queue[:0]
	for _, msg := range n.queue {
		if msg.ChatID == roomID {
			flushed = append(flushed, msg)
			delete(n.queued, msg.ID)
			continue
		}
		remaining = append(remaining, msg)
	}
	n.queue = remaining

	known := make(map[string]bool, len(history))
	entries := make([]TranscriptEntry, 0, len(history)+len(flushed))
	for _, msg := range history {
		known[msg.ID] = true
		entries = append(entries, TranscriptEntry{Message: msg})
	}
	for _, msg := range flushed {
		if known[msg.ID] {
			continue
		}
		entries = append(entries, TranscriptEntry{Message: msg})
	}
	n.transcripts[roomID] = entries
}

// CloseActive clears the active-room pointer; subsequent messages for the
// previously active room queue as notifications.
func (n *Notifier) CloseActive() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms.SetActive("")
}

// AppendLocal records an optimistic transcript entry for a locally sent
// message, before network confirmation.
func (n *Notifier) AppendLocal(msg chat.WireMessage, pending bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transcripts[msg.ChatID] = append(n.transcripts[msg.ChatID], TranscriptEntry{Message: msg, Pending: pending})
}

// ResolveLocal reconciles an optimistic entry once the persistence call
// finishes. The persisted message may carry a different (server-assigned) id.
func (n *Notifier) ResolveLocal(chatID, localID string, persisted *chat.WireMessage, failed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.transcripts[chatID]
	for i := range entries {
		if entries[i].Message.ID != localID {
			continue
		}
		entries[i].Pending = false
		entries[i].Failed = failed
		if persisted != nil {
			entries[i].Message = *persisted
		}
		return
	}
}

// SetTranscript replaces a room's transcript, as when history is fetched
// from the message store on open.
func (n *Notifier) SetTranscript(roomID string, msgs []chat.WireMessage) {
	entries := make([]TranscriptEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, TranscriptEntry{Message: msg})
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.transcripts[roomID] = entries
}

// Transcript returns a copy of the room's transcript in append order.
func (n *Notifier) Transcript(roomID string) []TranscriptEntry {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := n.transcripts[roomID]
	out := make([]TranscriptEntry, len(entries))
	copy(out, entries)
	return out
}

// Notifications returns a copy of the queue in insertion order. The queue
// itself is unbounded; displays may cap what they show.
func (n *Notifier) Notifications() []chat.WireMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]chat.WireMessage, len(n.queue))
	copy(out, n.queue)
	return out
}

// UnreadCount returns how many queued notifications target the room.
func (n *Notifier) UnreadCount(roomID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, msg := range n.queue {
		if msg.ChatID == roomID {
			count++
		}
	}
	return count
}
