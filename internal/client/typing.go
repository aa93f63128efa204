package client

import (
	"sort"
	"sync"
	"time"

	"chatwire/pkg/chat"
)

// DefaultTypingWindow bounds indicator staleness: a typist who goes quiet is
// cleared within this window, with or without an explicit stop signal.
const DefaultTypingWindow = 3 * time.Second

// TypingCoordinator debounces local keystrokes into typing / stop typing
// signals and tracks remote typists per room.
//
// Local side is a per-room state machine {idle, typing}: the first keystroke
// emits typing immediately and exactly once; a timer reset on every
// keystroke emits stop typing when it fires.
//
// Remote side is a set of typists per room, each with a last-signal
// timestamp. One typist's stop never clears another's indicator, and entries
// expire after the window even if the stop signal was lost.
type TypingCoordinator struct {
	conn   Emitter
	window time.Duration

	mu     sync.Mutex
	local  map[string]*time.Timer
	remote map[string]map[string]typist
	closed bool

	// onChange, if set, fires after any remote typing change so the UI can
	// re-render. Called without the lock held.
	onChange func(roomID string)
}

type typist struct {
	username string
	lastSeen time.Time
}

func NewTypingCoordinator(conn Emitter, window time.Duration) *TypingCoordinator {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingCoordinator{
		conn:   conn,
		window: window,
		local:  make(map[string]*time.Timer),
		remote: make(map[string]map[string]typist),
	}
}

func (t *TypingCoordinator) OnChange(fn func(roomID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Keystroke records a local keystroke in the room. The first one after idle
// emits typing; every one pushes the stop timer out by the full window.
func (t *TypingCoordinator) Keystroke(roomID string) {
	if roomID == "" {
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	if timer, typing := t.local[roomID]; typing {
		timer.Reset(t.window)
		t.mu.Unlock()
		return
	}

	t.local[roomID] = time.AfterFunc(t.window, func() {
		t.timerFired(roomID)
	})
	t.mu.Unlock()

	t.conn.Emit(chat.EventTyping, chat.TypingPayload{ChatID: roomID})
}

// Stop ends the local typing state explicitly, as on message send.
func (t *TypingCoordinator) Stop(roomID string) {
	t.mu.Lock()
	timer, typing := t.local[roomID]
	if typing {
		timer.Stop()
		delete(t.local, roomID)
	}
	t.mu.Unlock()

	if typing {
		t.conn.Emit(chat.EventStopTyping, chat.TypingPayload{ChatID: roomID})
	}
}

func (t *TypingCoordinator) timerFired(roomID string) {
	t.mu.Lock()
	_, typing := t.local[roomID]
	if typing {
		delete(t.local, roomID)
	}
	t.mu.Unlock()

	if typing {
		t.conn.Emit(chat.EventStopTyping, chat.TypingPayload{ChatID: roomID})
	}
}

// IsTypingLocally reports whether this client is in the typing state for the
// room.
func (t *TypingCoordinator) IsTypingLocally(roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, typing := t.local[roomID]
	return typing
}

// HandleTyping records a remote typing signal.
func (t *TypingCoordinator) HandleTyping(p chat.TypingPayload) {
	if p.ChatID == "" || p.UserID == "" {
		return
	}

	t.mu.Lock()
	if t.remote[p.ChatID] == nil {
		t.remote[p.ChatID] = make(map[string]typist)
	}
	t.remote[p.ChatID][p.UserID] = typist{username: p.Username, lastSeen: time.Now()}
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(p.ChatID)
	}
}

// HandleStopTyping clears one remote typist. Other typists in the room keep
// their indicators.
func (t *TypingCoordinator) HandleStopTyping(p chat.TypingPayload) {
	if p.ChatID == "" || p.UserID == "" {
		return
	}

	t.mu.Lock()
	if room := t.remote[p.ChatID]; room != nil {
		delete(room, p.UserID)
		if len(room) == 0 {
			delete(t.remote, p.ChatID)
		}
	}
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(p.ChatID)
	}
}

// Typists returns the usernames (or user ids when no name is known) of
// everyone currently typing in the room, expiring stale entries as a
// backstop for lost stop signals.
func (t *TypingCoordinator) Typists(roomID string) []string {
	cutoff := time.Now().Add(-t.window)

	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.remote[roomID]
	names := make([]string, 0, len(room))
	for userID, entry := range room {
		if entry.lastSeen.Before(cutoff) {
			delete(room, userID)
			continue
		}
		if entry.username != "" {
			names = append(names, entry.username)
		} else {
			names = append(names, userID)
		}
	}
	if len(room) == 0 {
		delete(t.remote, roomID)
	}
	sort.Strings(names)
	return names
}

// Close cancels local timers. No stop signals are emitted; the receiver-side
// expiry covers peers.
func (t *TypingCoordinator) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for roomID, timer := range t.local {
		timer.Stop()
		delete(t.local, roomID)
	}
}
