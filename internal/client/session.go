package client

import (
	"context"
	"log"
	"time"

	"chatwire/pkg/chat"

	"github.com/google/uuid"
)

// Session assembles the client core around one connection: room tracking,
// typing coordination, notification routing and the HTTP message store.
// Event handlers are registered exactly once here, for the lifetime of the
// connection, and released in Close, never re-registered per render.
type Session struct {
	Conn     *Conn
	Rooms    *RoomTracker
	Typing   *TypingCoordinator
	Notifier *Notifier

	api      *APIClient
	identity Identity
	unsubs   []func()

	// onNotice, if set, receives user-visible transient failures: relay
	// rejections, send failures, connection drops.
	onNotice func(error)
}

func NewSession(conn *Conn, api *APIClient, identity Identity) *Session {
	rooms := NewRoomTracker(conn)
	s := &Session{
		Conn:     conn,
		Rooms:    rooms,
		Typing:   NewTypingCoordinator(conn, DefaultTypingWindow),
		Notifier: NewNotifier(rooms),
		api:      api,
		identity: identity,
	}

	s.unsubs = append(s.unsubs,
		conn.On(chat.EventMessageReceived, s.handleMessageReceived),
		conn.On(chat.EventTyping, s.handleTyping),
		conn.On(chat.EventStopTyping, s.handleStopTyping),
		conn.On(chat.EventError, s.handleError),
	)
	conn.OnRejoin(rooms.Rejoin)
	conn.OnConnectionLost(func(err error) {
		s.notice(err)
	})

	return s
}

func (s *Session) OnNotice(fn func(error)) {
	s.onNotice = fn
}

func (s *Session) Identity() Identity {
	return s.identity
}

func (s *Session) API() *APIClient {
	return s.api
}

// OpenRoom joins the room, loads its history from the message store and
// makes it the active room, flushing its queued notifications.
func (s *Session) OpenRoom(ctx context.Context, roomID string) error {
	if err := s.Rooms.Join(roomID); err != nil {
		return err
	}

	history, err := s.api.FetchMessages(ctx, roomID)
	if err != nil {
		return err
	}

	s.Notifier.OpenWithHistory(roomID, history)
	return nil
}

// LeaveRoom navigates away: clears the active pointer and leaves the room so
// the relay can prune it.
func (s *Session) LeaveRoom(roomID string) error {
	s.Typing.Stop(roomID)
	s.Notifier.CloseActive()
	return s.Rooms.Leave(roomID)
}

// Send persists the message, appends it optimistically and emits it for live
// fan-out. The optimistic entry is reconciled either way: replaced by the
// stored message, or marked failed with a SendFailureError returned.
func (s *Session) Send(ctx context.Context, roomID, content string) error {
	if content == "" {
		return nil
	}

	s.Typing.Stop(roomID)

	local := chat.WireMessage{
		ID:         "local-" + uuid.NewString(),
		ChatID:     roomID,
		SenderID:   s.identity.UserID,
		SenderName: s.identity.Username,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	s.Notifier.AppendLocal(local, true)

	stored, err := s.api.SendMessage(ctx, roomID, content)
	if err != nil {
		s.Notifier.ResolveLocal(roomID, local.ID, nil, true)
		sendErr := &SendFailureError{ChatID: roomID, Err: err}
		s.notice(sendErr)
		return sendErr
	}
	s.Notifier.ResolveLocal(roomID, local.ID, stored, false)

	if err := s.Conn.Emit(chat.EventNewMessage, stored); err != nil {
		// Persisted but not fanned out live; peers will see it on backfill.
		log.Printf("client: live emit failed for %s: %v", stored.ID, err)
	}
	return nil
}

// Keystroke forwards a keystroke in the active room to the typing
// coordinator.
func (s *Session) Keystroke() {
	s.Typing.Keystroke(s.Rooms.Active())
}

// Close releases all handlers and tears the connection down.
func (s *Session) Close() error {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.Typing.Close()
	return s.Conn.Close()
}

func (s *Session) handleMessageReceived(ev chat.Event) {
	var msg chat.WireMessage
	if err := ev.Bind(&msg); err != nil {
		log.Printf("client: malformed message received: %v", err)
		return
	}
	s.Notifier.HandleInbound(msg)
}

func (s *Session) handleTyping(ev chat.Event) {
	var p chat.TypingPayload
	if err := ev.Bind(&p); err != nil {
		return
	}
	s.Typing.HandleTyping(p)
}

func (s *Session) handleStopTyping(ev chat.Event) {
	var p chat.TypingPayload
	if err := ev.Bind(&p); err != nil {
		return
	}
	s.Typing.HandleStopTyping(p)
}

func (s *Session) handleError(ev chat.Event) {
	var p chat.ErrorPayload
	if err := ev.Bind(&p); err != nil {
		return
	}

	if p.Code == chat.ErrCodeMembershipViolation {
		s.notice(&MembershipViolationError{ChatID: p.ChatID})
		return
	}
	s.notice(&relayError{code: p.Code, message: p.Message})
}

type relayError struct {
	code    string
	message string
}

func (e *relayError) Error() string {
	return e.code + ": " + e.message
}

func (s *Session) notice(err error) {
	if s.onNotice != nil {
		s.onNotice(err)
		return
	}
	log.Printf("client: %v", err)
}
